package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// BotConfig drives cmd/table-bot, an out-of-process player that talks to
// the server over HTTP.
type BotConfig struct {
	BaseURL  string        `env:"BOT_BASE_URL" envDefault:"http://localhost:8080"`
	TableID  string        `env:"BOT_TABLE_ID,required,notEmpty"`
	UserID   string        `env:"BOT_USER_ID" envDefault:"bot"`
	Username string        `env:"BOT_USERNAME" envDefault:"dumb-bot"`
	Buyin    int64         `env:"BOT_BUYIN" envDefault:"0"`
	Think    time.Duration `env:"BOT_THINK" envDefault:"1s"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
