package config

import (
	"time"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12111"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

// MailConfig bounds every network phase of the protocol adapters so a dead
// server cannot hang a request indefinitely.
type MailConfig struct {
	DialTimeout     time.Duration `env:"MAIL_DIAL_TIMEOUT" envDefault:"30s"`
	AuthTimeout     time.Duration `env:"MAIL_AUTH_TIMEOUT" envDefault:"30s"`
	GreetingTimeout time.Duration `env:"MAIL_GREETING_TIMEOUT" envDefault:"10s"`
}

type ActivityConfig struct {
	WebhookURL string        `env:"ACTIVITY_WEBHOOK_URL"`
	InvokeURL  string        `env:"ACTIVITY_INVOKE_URL"`
	APIKey     string        `env:"ACTIVITY_API_KEY"`
	Timeout    time.Duration `env:"ACTIVITY_TIMEOUT" envDefault:"10s"`
}
