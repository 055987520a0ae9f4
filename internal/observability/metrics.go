package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics for the platform.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transiciones    *prometheus.CounterVec
	overrides       prometheus.Counter
	vencidos        prometheus.Counter
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "regulatoria_http_requests_total",
		Help: "Peticiones HTTP por ruta y código de estado.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "regulatoria_http_request_duration_seconds",
		Help:    "Duración de las peticiones HTTP por ruta.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	transiciones := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "regulatoria_transiciones_total",
		Help: "Transiciones de estado aplicadas, por evento y resultado.",
	}, []string{"evento", "resultado"})
	overrides := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regulatoria_overrides_total",
		Help: "Overrides administrativos confirmados.",
	})
	vencidos := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regulatoria_periodos_vencidos_total",
		Help: "Periodos marcados como vencidos por el reloj.",
	})
	registry.MustRegister(requests, duration, transiciones, overrides, vencidos)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		transiciones:    transiciones,
		overrides:       overrides,
		vencidos:        vencidos,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP call.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObservarTransicion counts one applied or rejected transition.
func (m *Metrics) ObservarTransicion(evento, resultado string) {
	if m == nil {
		return
	}
	m.transiciones.WithLabelValues(evento, resultado).Inc()
}

// ObservarOverride counts one committed administrative override.
func (m *Metrics) ObservarOverride() {
	if m == nil {
		return
	}
	m.overrides.Inc()
}

// ObservarVencidos counts periods expired by the scheduled sweep.
func (m *Metrics) ObservarVencidos(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.vencidos.Add(float64(n))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
