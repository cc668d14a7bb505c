package core

import (
	"time"

	"github.com/fox-one/pkg/store/db"
)

// Config lendhub config
type Config struct {
	App         App         `json:"app"`
	DB          db.Config   `json:"db"`
	API         API         `json:"api"`
	PriceOracle PriceOracle `json:"price_oracle"`
}

// App app config
type App struct {
	Location string `json:"location"`
}

// API rest api config
type API struct {
	Addr string `json:"addr"`
}

// PriceOracle price feed config
type PriceOracle struct {
	EndPoint string        `json:"end_point"`
	Interval time.Duration `json:"interval"`
}
