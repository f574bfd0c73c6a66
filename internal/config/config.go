package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"OrderDesk"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"orderdesk"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	}

	Auth struct {
		Secret string        `envconfig:"JWT_SECRET" required:"true"`
		TTL    time.Duration `envconfig:"JWT_TTL" default:"12h"`
	}

	Admin struct {
		// An empty password skips seeding the first admin account.
		Username string `envconfig:"ADMIN_USERNAME" default:"admin"`
		Password string `envconfig:"ADMIN_PASSWORD"`
	}

	Metrics struct {
		// Prometheus is served on its own listener, off the public API. Empty disables it.
		Addr string `envconfig:"METRICS_ADDR" default:"127.0.0.1:9091"`
	}

	Events struct {
		// Empty URL disables publishing.
		URL      string `envconfig:"RABBITMQ_URL"`
		Exchange string `envconfig:"ORDER_EXCHANGE" default:"orders"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
