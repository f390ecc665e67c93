package controlplane

import "time"

type Config struct {
	URL            string        `envconfig:"LEO_URL" required:"true"`
	Token          string        `envconfig:"LEO_TOKEN"`
	RequestTimeout time.Duration `envconfig:"LEO_REQUEST_TIMEOUT" default:"60s"`
}
