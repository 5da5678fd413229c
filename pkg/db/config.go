package db

import "time"

// Config holds PostgreSQL pool parameters.
type Config struct {
	// URL is a postgres:// connection string.
	URL string

	HealthCheckPeriod time.Duration
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	MaxConns          int32
	MinConns          int32

	// RetryAttempts and RetryInterval control Open's startup retries.
	RetryAttempts int
	RetryInterval time.Duration
}

// DefaultConfig returns the pool defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		MaxConns:          10,
		MinConns:          2,
		RetryAttempts:     3,
		RetryInterval:     2 * time.Second,
	}
}
