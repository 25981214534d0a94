package config

import "time"

type Kafka struct {
	Addresses []string `env:"KAFKA_ADDRESSES,required" envSeparator:","`
	Group     string   `env:"KAFKA_GROUP,required"`
	ClientID  string   `env:"KAFKA_CLIENT_ID" envDefault:"stock-ledger"`

	// AutoCreateTopics lets the broker create the ledger topics on first use.
	AutoCreateTopics bool          `env:"KAFKA_AUTO_CREATE_TOPICS" envDefault:"true"`
	DialTimeout      time.Duration `env:"KAFKA_DIAL_TIMEOUT" envDefault:"5s"`
}
