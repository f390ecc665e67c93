package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// cloudenvd HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudenv_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cloudenv_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cloudenv_active_requests",
		Help: "Current in-flight requests",
	})

	ResourceActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudenv_resource_actions_total",
		Help: "Create, start, stop and delete requests by resource kind",
	}, []string{"kind", "action", "code"})

	// reconciler metrics
	PollTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudenv_poll_total",
		Help: "Completed polls by outcome",
	}, []string{"provider", "result"})

	PollDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cloudenv_poll_duration_seconds",
		Help:    "Time to fetch runtimes, apps and disks for one workspace",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	PollStaleDiscardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cloudenv_poll_stale_discarded_total",
		Help: "Poll results dropped because a newer poll was issued",
	})

	WatchedGroups = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cloudenv_watched_groups",
		Help: "Workspaces currently watched",
	})

	GroupTerminalTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudenv_group_terminal_total",
		Help: "Watchers that stopped polling",
	}, []string{"reason"})

	// control plane and object storage
	ControlPlaneRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudenv_controlplane_requests_total",
		Help: "Requests sent to the control plane",
	}, []string{"method", "code"})

	UserscriptFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudenv_userscript_fetch_total",
		Help: "Startup-script log previews fetched from object storage",
	}, []string{"result"})
)

func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, ActiveRequests, ResourceActionsTotal,
		PollTotal, PollDuration, PollStaleDiscardedTotal, WatchedGroups, GroupTerminalTotal,
		ControlPlaneRequestsTotal, UserscriptFetchTotal,
	)
}
