package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/xssnick/tonutils-go/address"
)

type Config struct {
	Debug    bool   `env:"DEBUG" envDefault:"false"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"*"`
	}

	Telegram struct {
		BotToken string `env:"BOT_TOKEN,required"`
	}

	Ton struct {
		// Toncenter-compatible HTTP API base URL, including any API key path.
		Endpoint        string `env:"QUICKNODE_ENDPOINT,required"`
		ContractAddress string `env:"CONTRACT_ADDRESS,required"`
		// Seqno cache TTL in seconds.
		CacheTimeout int `env:"CACHE_TIMEOUT" envDefault:"60"`
	}

	WebApp struct {
		BaseURL string `env:"WEBAPP_BASE_URL" envDefault:"https://sbtid.nikandr.com"`
	}
}

// Load reads .env (if present) and the process environment. Missing required
// settings or an unparseable contract address abort startup.
func Load() (*Config, error) {
	// Ignore a missing .env file; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if _, err := address.ParseAddr(cfg.Ton.ContractAddress); err != nil {
		return nil, fmt.Errorf("invalid CONTRACT_ADDRESS %q: %w", cfg.Ton.ContractAddress, err)
	}
	if cfg.Ton.CacheTimeout <= 0 {
		return nil, fmt.Errorf("CACHE_TIMEOUT must be positive, got %d", cfg.Ton.CacheTimeout)
	}

	return cfg, nil
}
