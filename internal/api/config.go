package api

import "time"

type Config struct {
	HTTPAddr        string        `envconfig:"CLOUDENV_HTTP_ADDR" default:"0.0.0.0:8080"`
	MetricsAddr     string        `envconfig:"CLOUDENV_METRICS_ADDR" default:"0.0.0.0:9090"`
	LogLevel        string        `envconfig:"CLOUDENV_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"CLOUDENV_SHUTDOWN_TIMEOUT" default:"30s"`
}
