package promclient

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics of one feed process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	MessagesTotal  *prometheus.CounterVec
	DroppedTotal   *prometheus.CounterVec
	DesyncTotal    *prometheus.CounterVec
	OpenOrderBooks *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_messages_total",
				Help: "inbound messages handled, by channel kind",
			},
			[]string{"source", "kind"},
		),
		DroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_dropped_messages_total",
				Help: "inbound messages dropped, by reason",
			},
			[]string{"source", "reason"},
		),
		DesyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_book_desync_total",
				Help: "order book desync conditions, by pair",
			},
			[]string{"source", "pair"},
		),
		OpenOrderBooks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feed_open_order_books",
				Help: "order books currently maintained",
			},
			[]string{"source", "kind"},
		),
	}

	reg.MustRegister(m.MessagesTotal, m.DroppedTotal, m.DesyncTotal, m.OpenOrderBooks)
	return m
}

func (m *Metrics) ObserveMessage(source, kind string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) ObserveDrop(source, reason string) {
	if m == nil {
		return
	}
	m.DroppedTotal.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) ObserveDesync(source, pair string) {
	if m == nil {
		return
	}
	m.DesyncTotal.WithLabelValues(source, pair).Inc()
}

func (m *Metrics) SetOpenOrderBooks(source, kind string, n int) {
	if m == nil {
		return
	}
	m.OpenOrderBooks.WithLabelValues(source, kind).Set(float64(n))
}

// NewRegistry returns a registry with the Go runtime collector registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// NewHandler exposes the registry over HTTP.
func NewHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

func StartPromClientServer(addr string, gatherer prometheus.Gatherer) error {
	log.Printf("prometheus server listening at %s", addr)
	return http.ListenAndServe(addr, NewHandler(gatherer))
}
