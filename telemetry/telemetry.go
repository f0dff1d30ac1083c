package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/config"
)

const namespace = "yearly_summary"

// Recorder collects the metrics of a single invocation. A batch job doesn't
// live long enough to be scraped, so the metrics are pushed to a Pushgateway
// at the end of the run when one is configured.
type Recorder struct {
	registry    *prometheus.Registry
	patients    *prometheus.CounterVec
	records     prometheus.Counter
	duration    prometheus.Gauge
	failed      prometheus.Gauge
	lastSuccess prometheus.Gauge
	pusher      *push.Pusher
	logger      *zap.SugaredLogger
}

func NewRecorder(cfg *config.Config, logger *zap.SugaredLogger) (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		patients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patients_total",
			Help:      "Number of patients processed by status.",
		}, []string{"status"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_records_total",
			Help:      "Number of metric entries counted into summaries.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_failed",
			Help:      "Whether the last run finished with an error.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without an error.",
		}),
		logger: logger,
	}

	for _, c := range []prometheus.Collector{r.patients, r.records, r.duration, r.failed, r.lastSuccess} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("unable to register metric: %w", err)
		}
	}

	if cfg.PushgatewayURL != "" {
		r.pusher = push.New(cfg.PushgatewayURL, cfg.JobName).Gatherer(r.registry)
	}

	return r, nil
}

func (r *Recorder) ObservePatient(status string, recordCount int) {
	r.patients.WithLabelValues(status).Inc()
	r.records.Add(float64(recordCount))
}

func (r *Recorder) ObserveRun(duration time.Duration, err error, finishedAt time.Time) {
	r.duration.Set(duration.Seconds())
	if err != nil {
		r.failed.Set(1)
		return
	}
	r.failed.Set(0)
	r.lastSuccess.Set(float64(finishedAt.Unix()))
}

// Push sends the collected metrics to the Pushgateway. It is a no-op when no
// Pushgateway is configured.
func (r *Recorder) Push(ctx context.Context) error {
	if r.pusher == nil {
		return nil
	}
	if err := r.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("unable to push metrics: %w", err)
	}
	r.logger.Debug("pushed run metrics")
	return nil
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
