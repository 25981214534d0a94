package config

import "time"

type Ledger struct {
	// OperationTimeout bounds each ledger operation, lock wait included.
	OperationTimeout time.Duration `env:"LEDGER_OPERATION_TIMEOUT" envDefault:"5s"`
}

type Event struct {
	LowStockThreshold int `env:"EVENT_LOW_STOCK_THRESHOLD" envDefault:"5"`
}
