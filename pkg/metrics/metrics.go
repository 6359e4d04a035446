package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses around 700ms (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range: covers 60000ms+ (15s - 75s) ---
	20000,  // 20s
	30000,  // 30s
	45000,  // 45s
	60000,  // 60s
	75000,  // 75s
	90000,  // 90s
	120000, // 120s
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsGatewayCall = &Metric{
	ID:          "gwDur",
	Name:        "gateway_call_dur_ms",
	Description: "payment gateway call latency in milliseconds, partitioned by endpoint and outcome",
	Type:        "histogram_vec",
	Args:        []string{"endpoint", "outcome"},
}

var MetricsWebhookEvent = &Metric{
	ID:          "whCnt",
	Name:        "webhook_events_total",
	Description: "gateway webhook deliveries, partitioned by event type and outcome",
	Type:        "counter_vec",
	Args:        []string{"event_type", "outcome"},
}

var businessMetrics = []*Metric{
	MetricsBusinessProcess,
	MetricsGatewayCall,
	MetricsWebhookEvent,
}

const (
	RefererKey = "X-Referer"
)

// Recorder records payment business metrics. A nil *Recorder records nothing.
type Recorder struct {
	process  *prometheus.HistogramVec
	gateway  *prometheus.HistogramVec
	webhooks *prometheus.CounterVec
}

// NewRecorder registers the business metrics on reg. Collectors that are already
// registered are reused.
func NewRecorder(reg prometheus.Registerer, subsystem string) *Recorder {
	r := &Recorder{}
	for _, def := range businessMetrics {
		collector := NewMetric(def, subsystem)
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				collector = are.ExistingCollector
			}
		}
		switch def {
		case MetricsBusinessProcess:
			r.process, _ = collector.(*prometheus.HistogramVec)
		case MetricsGatewayCall:
			r.gateway, _ = collector.(*prometheus.HistogramVec)
		case MetricsWebhookEvent:
			r.webhooks, _ = collector.(*prometheus.CounterVec)
		}
	}
	return r
}

// ObserveProcess records the latency of a business process step.
func (r *Recorder) ObserveProcess(typ, subtype string, start time.Time) {
	if r == nil || r.process == nil {
		return
	}
	r.process.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

// ObserveGatewayCall records one outbound gateway call.
func (r *Recorder) ObserveGatewayCall(endpoint, outcome string, start time.Time) {
	if r == nil || r.gateway == nil {
		return
	}
	r.gateway.WithLabelValues(endpoint, outcome).Observe(MillisecondsSince(start))
}

// IncWebhook counts one webhook delivery.
func (r *Recorder) IncWebhook(eventType, outcome string) {
	if r == nil || r.webhooks == nil {
		return
	}
	r.webhooks.WithLabelValues(eventType, outcome).Inc()
}

// MillisecondsSince returns the elapsed time since start in fractional milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// Subsystem prefixes every business metric name.
const Subsystem = "payport"

var Module = fx.Options(
	fx.Provide(func() *Recorder { return NewRecorder(prometheus.DefaultRegisterer, Subsystem) }),
)
