package metrics

import (
	"strconv"
	"time"

	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Record methods are safe on a nil
// *Metrics so services can run without instrumentation.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	ContactsImported      prometheus.Counter
	ContactsImportSkipped prometheus.Counter
	AssetsUploaded        prometheus.Counter
	AssetDuplicates       prometheus.Counter
	ActivitiesRecorded    *prometheus.CounterVec
	ExportsCreated        *prometheus.CounterVec

	// Database metrics
	DBConnections prometheus.Gauge
}

// New creates a new Metrics instance registered with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 5000000, 25000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Business metrics
		ContactsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "contacts_imported_total",
			Help: "Total number of contacts created by imports",
		}),
		ContactsImportSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contacts_import_skipped_total",
			Help: "Total number of import rows or contacts skipped",
		}),
		AssetsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "assets_uploaded_total",
			Help: "Total number of assets stored",
		}),
		AssetDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "asset_duplicates_total",
			Help: "Total number of uploads skipped as duplicates",
		}),
		ActivitiesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activities_recorded_total",
				Help: "Total number of activity entries written",
			},
			[]string{"action"},
		),
		ExportsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exports_created_total",
				Help: "Total number of contact exports created",
			},
			[]string{"format"}, // csv, excel
		),

		// Database metrics
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		}),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/v1/contacts/:id

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordImport adds the outcome of one contact import.
func (m *Metrics) RecordImport(imported, skipped int) {
	if m == nil {
		return
	}
	m.ContactsImported.Add(float64(imported))
	m.ContactsImportSkipped.Add(float64(skipped))
}

// RecordAssetUploaded increments assets uploaded counter
func (m *Metrics) RecordAssetUploaded() {
	if m == nil {
		return
	}
	m.AssetsUploaded.Inc()
}

// RecordAssetDuplicate increments asset duplicates counter
func (m *Metrics) RecordAssetDuplicate() {
	if m == nil {
		return
	}
	m.AssetDuplicates.Inc()
}

// RecordActivity increments the activity counter for action. It matches the
// activity service hook signature.
func (m *Metrics) RecordActivity(action models.ActivityAction) {
	if m == nil {
		return
	}
	m.ActivitiesRecorded.WithLabelValues(string(action)).Inc()
}

// RecordExportCreated increments exports created counter
func (m *Metrics) RecordExportCreated(format string) {
	if m == nil {
		return
	}
	m.ExportsCreated.WithLabelValues(format).Inc()
}

// UpdateDBConnections updates the open database connections gauge
func (m *Metrics) UpdateDBConnections(count int) {
	if m == nil {
		return
	}
	m.DBConnections.Set(float64(count))
}
