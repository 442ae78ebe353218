package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	MailConfig     *MailConfig
	ActivityConfig *ActivityConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		MailConfig:     &MailConfig{},
		ActivityConfig: &ActivityConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading mailbridge config: %v", err)
	}

	return config, nil
}
