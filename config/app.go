package config

import (
	"os"
	"strconv"
	"sync"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName string
	Port    string
	Env     string
	Debug   bool

	// Movements whose absolute quantity meets this threshold are held for
	// approval before they touch on-hand stock.
	ApprovalThreshold int64

	// Fallback low-stock threshold for parts that do not carry their own.
	LowStockDefault int64

	// Days a new reservation stays valid before the expiry sweep flags it.
	ReservationExpiryDays int
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() {
	once.Do(func() {
		AppConfig = &Config{
			AppName:               os.Getenv("APP_NAME"),
			Port:                  os.Getenv("PORT"),
			Env:                   os.Getenv("APP_ENV"),
			Debug:                 os.Getenv("DEBUG") == "true",
			ApprovalThreshold:     envInt64("MOVEMENT_APPROVAL_THRESHOLD", 100),
			LowStockDefault:       envInt64("LOW_STOCK_DEFAULT", 5),
			ReservationExpiryDays: int(envInt64("RESERVATION_EXPIRY_DAYS", 30)),
		}
	})
}

// Get returns the loaded config, loading it on first use.
func Get() *Config {
	LoadAppConfig()
	return AppConfig
}
