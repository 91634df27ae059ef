// Package metrics holds the Prometheus collectors the shop reports into.
// Every method is safe on a nil *Metrics, so components take it as an optional dependency.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "partyshop"

// Result label values.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultDropped  = "dropped"
	ResultCanceled = "canceled"
)

type Metrics struct {
	registry *prometheus.Registry

	cartPersist     *prometheus.CounterVec
	cartRestore     *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	identityChanges *prometheus.CounterVec
	addressLookups  *prometheus.CounterVec
	cartItems       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cartPersist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "persist_total",
			Help:      "Cart snapshot writes and deletes against device storage.",
		}, []string{"op", "result"}),
		cartRestore: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "restore_total",
			Help:      "Cart restores at start, by outcome.",
		}, []string{"result"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Committed cart mutations by operation.",
		}, []string{"op"}),
		identityChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "identity_changes_total",
			Help:      "Identity notifications applied to the session.",
		}, []string{"state"}),
		addressLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "address",
			Name:      "lookups_total",
			Help:      "Postal code lookups by outcome.",
		}, []string{"result"}),
		cartItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "items",
			Help:      "Items currently in the cart.",
		}),
	}

	m.registry.MustRegister(
		m.cartPersist,
		m.cartRestore,
		m.cartMutations,
		m.identityChanges,
		m.addressLookups,
		m.cartItems,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CartPersisted(op, result string) {
	if m == nil {
		return
	}
	m.cartPersist.WithLabelValues(op, result).Inc()
}

func (m *Metrics) CartRestored(result string) {
	if m == nil {
		return
	}
	m.cartRestore.WithLabelValues(result).Inc()
}

func (m *Metrics) CartMutated(op string, items int) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
	m.cartItems.Set(float64(items))
}

func (m *Metrics) IdentityChanged(signedIn bool) {
	if m == nil {
		return
	}
	state := "signed_out"
	if signedIn {
		state = "signed_in"
	}
	m.identityChanges.WithLabelValues(state).Inc()
}

func (m *Metrics) AddressLookedUp(result string) {
	if m == nil {
		return
	}
	m.addressLookups.WithLabelValues(result).Inc()
}
