// Package metrics agrupa las métricas Prometheus del frontend: sesión
// (refresh, switch de org, decisiones), llamadas al backend y requests HTTP.
package metrics

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/crmfront/internal/cache"
	"github.com/dropDatabas3/crmfront/internal/session"
)

// Metrics implementa session.Observer y el hook de latencia de backend.Client.
type Metrics struct {
	gatherer prometheus.Gatherer

	refreshTotal    *prometheus.CounterVec
	orgSwitchTotal  *prometheus.CounterVec
	decisionsTotal  *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
}

var _ session.Observer = (*Metrics)(nil)

// New crea y registra las métricas. reg nil usa el registry global.
func New(reg *prometheus.Registry) (*Metrics, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	m := &Metrics{
		gatherer: gatherer,
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crmfront_session_refresh_total",
			Help: "Intercambios de refresh por resultado",
		}, []string{"result"}), // result: ok|failed
		orgSwitchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crmfront_session_org_switch_total",
			Help: "Intercambios de switch de organización por resultado",
		}, []string{"result"}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crmfront_session_decisions_total",
			Help: "Decisiones de ruteo del resolver de sesión",
		}, []string{"decision"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crmfront_backend_request_duration_seconds",
			Help:    "Latencia de llamadas al backend",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"op", "outcome"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"}),
	}

	var err error
	if m.refreshTotal, err = register(registerer, m.refreshTotal); err != nil {
		return nil, err
	}
	if m.orgSwitchTotal, err = register(registerer, m.orgSwitchTotal); err != nil {
		return nil, err
	}
	if m.decisionsTotal, err = register(registerer, m.decisionsTotal); err != nil {
		return nil, err
	}
	if m.backendDuration, err = register(registerer, m.backendDuration); err != nil {
		return nil, err
	}
	if m.httpRequestsTotal, err = register(registerer, m.httpRequestsTotal); err != nil {
		return nil, err
	}
	if m.httpRequestDuration, err = register(registerer, m.httpRequestDuration); err != nil {
		return nil, err
	}
	if m.httpInflight, err = register(registerer, m.httpInflight); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterCache expone las estadísticas del cache como gauges.
func (m *Metrics) RegisterCache(reg *prometheus.Registry, c cache.Client) error {
	if c == nil {
		return nil
	}
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	if reg != nil {
		registerer = reg
	}
	_, err := register[prometheus.Collector](registerer, newCacheCollector(c))
	return err
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func (m *Metrics) ObserveRefresh(ok bool)   { m.refreshTotal.WithLabelValues(result(ok)).Inc() }
func (m *Metrics) ObserveOrgSwitch(ok bool) { m.orgSwitchTotal.WithLabelValues(result(ok)).Inc() }

func (m *Metrics) ObserveDecision(d session.Decision) {
	m.decisionsTotal.WithLabelValues(d.String()).Inc()
}

// ObserveBackend tiene la firma de backend.ObserveFunc.
func (m *Metrics) ObserveBackend(op, outcome string, d time.Duration) {
	m.backendDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// StartHTTP marca un request en vuelo; la función devuelta lo cierra con el status final.
func (m *Metrics) StartHTTP(method, path string) func(status int) {
	method = strings.ToUpper(method)
	pathLabel := normalizePath(path)
	m.httpInflight.WithLabelValues(method, pathLabel).Inc()
	start := time.Now()

	return func(status int) {
		m.httpInflight.WithLabelValues(method, pathLabel).Dec()
		m.httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
	}
}

// register registra el collector. Si ya estaba registrado devuelve el existente
// (un segundo New sobre el mismo registry comparte los vectores).
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return collector, nil
		}
		return collector, err
	}
	return collector, nil
}

// cacheCollector expone gauges del cache (keys, hits, misses) leídos en cada scrape.
type cacheCollector struct {
	c cache.Client

	keysDesc   *prometheus.Desc
	hitsDesc   *prometheus.Desc
	missesDesc *prometheus.Desc
}

func newCacheCollector(c cache.Client) *cacheCollector {
	return &cacheCollector{
		c:          c,
		keysDesc:   prometheus.NewDesc("crmfront_cache_keys", "Keys presentes en el cache", []string{"driver"}, nil),
		hitsDesc:   prometheus.NewDesc("crmfront_cache_hits", "Hits acumulados del cache", []string{"driver"}, nil),
		missesDesc: prometheus.NewDesc("crmfront_cache_misses", "Misses acumulados del cache", []string{"driver"}, nil),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keysDesc
	ch <- c.hitsDesc
	ch <- c.missesDesc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.c.Stats(ctx)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.keysDesc, prometheus.GaugeValue, float64(st.Keys), st.Driver)
	ch <- prometheus.MustNewConstMetric(c.hitsDesc, prometheus.GaugeValue, float64(st.Hits), st.Driver)
	ch <- prometheus.MustNewConstMetric(c.missesDesc, prometheus.GaugeValue, float64(st.Misses), st.Driver)
}

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegmentRE   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// normalizePath colapsa segmentos dinámicos (ids, uuids, tokens) a ":param"
// para acotar la cardinalidad del label path.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if uuidSegmentRE.MatchString(seg) || hexSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
