package config

type HTTP struct {
	Port    uint32 `env:"HTTP_PORT" envDefault:"8000"`
	Swagger bool   `env:"HTTP_SWAGGER" envDefault:"true"`

	// CorsAllowedOrigins is ignored when CorsAllowAll is set.
	CorsAllowedOrigins []string `env:"HTTP_CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"`
	CorsAllowAll       bool     `env:"HTTP_CORS_ALLOW_ALL" envDefault:"false"`
}
