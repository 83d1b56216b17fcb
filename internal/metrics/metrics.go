package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout bundles the counters the reservation and fulfillment paths
// report into. A nil *Checkout is a valid no-op collector so tests and
// trimmed-down deployments can skip registration.
type Checkout struct {
	reservations  *prometheus.CounterVec
	releases      prometheus.Counter
	webhookEvents *prometheus.CounterVec
	oversells     prometheus.Counter
}

func New(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "reservations_total",
			Help:      "Stock reservation attempts by result.",
		}, []string{"result"}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "releases_total",
			Help:      "Stock releases applied.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries by outcome.",
		}, []string{"outcome"}),
		oversells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "oversell_total",
			Help:      "Post-payment stock decrements that under-ran.",
		}),
	}
	reg.MustRegister(m.reservations, m.releases, m.webhookEvents, m.oversells)
	return m
}

func (m *Checkout) Reservation(result string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(result).Inc()
}

func (m *Checkout) Release() {
	if m == nil {
		return
	}
	m.releases.Inc()
}

func (m *Checkout) WebhookEvent(outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

func (m *Checkout) Oversell() {
	if m == nil {
		return
	}
	m.oversells.Inc()
}

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
