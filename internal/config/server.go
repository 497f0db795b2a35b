package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// BroadcastBuffer is how many events each table keeps for SSE replay.
	BroadcastBuffer int `env:"BROADCAST_BUFFER" envDefault:"200"`
	// ResumeOpenTables starts a worker for every open table at boot.
	ResumeOpenTables bool `env:"RESUME_OPEN_TABLES" envDefault:"true"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
