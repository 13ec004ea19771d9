package config

import "time"

type Config struct {
	Web  Web
	DB   DB
	Cors Cors
	Auth Auth
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost:5432"`
	Name       string `conf:"default:coursemart"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`

	// Login attempts allowed per email before the token bucket empties.
	LoginBurst int `conf:"default:5"`

	// Minutes of inactivity after which a limiter entry is evicted.
	LoginExpiryMinutes int `conf:"default:60"`

	// Interval at which one login attempt is restored.
	LoginInterval time.Duration `conf:"default:30s"`
}
