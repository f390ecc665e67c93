package reconcile

import "time"

type Config struct {
	PollInterval time.Duration `envconfig:"RECONCILE_POLL_INTERVAL" default:"10s"`
	IdleInterval time.Duration `envconfig:"RECONCILE_IDLE_INTERVAL" default:"2m"`
	EventBuffer  int           `envconfig:"RECONCILE_EVENT_BUFFER" default:"16"`
}
