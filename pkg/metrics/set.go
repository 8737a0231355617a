package metrics

import (
	"runtime"
	"strconv"
	"time"
)

// Set is the collection of series the server reports.
type Set struct {
	Registry *Registry

	Requests        *Counter
	RequestDuration *Histogram
	DependentCalls  *Counter
	Webhooks        *Counter
}

// NewSet registers the server metrics on a fresh registry.
func NewSet() *Set {
	r := NewRegistry()
	start := time.Now()
	s := &Set{
		Registry: r,
		Requests: r.NewCounter("mockapi_requests_total",
			"Requests served under the mock API prefix",
			"method", "kind", "status"),
		RequestDuration: r.NewHistogram("mockapi_request_duration_seconds",
			"Time to serve mock API requests in seconds",
			DefaultBuckets,
			"method", "kind"),
		DependentCalls: r.NewCounter("mockapi_dependent_calls_total",
			"Dependent API evaluations by outcome",
			"outcome"),
		Webhooks: r.NewCounter("mockapi_webhooks_total",
			"Webhook deliveries by outcome",
			"outcome"),
	}
	r.NewGaugeFunc("mockapi_uptime_seconds", "Seconds since the server started", func() float64 {
		return time.Since(start).Seconds()
	})
	r.NewGaugeFunc("go_goroutines", "Number of goroutines that currently exist", func() float64 {
		return float64(runtime.NumGoroutine())
	})
	return s
}

// ObserveRequest records one served request.
func (s *Set) ObserveRequest(method, kind string, status int, elapsed time.Duration) {
	s.Requests.Inc(method, kind, strconv.Itoa(status))
	s.RequestDuration.Observe(elapsed.Seconds(), method, kind)
}

// ObserveDependent records a dependent API outcome.
func (s *Set) ObserveDependent(outcome string) {
	s.DependentCalls.Inc(outcome)
}

// ObserveWebhook records a webhook outcome.
func (s *Set) ObserveWebhook(outcome string) {
	s.Webhooks.Inc(outcome)
}
