package metrics

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts upload outcomes and duration samples. Recording is
// best-effort: no method returns an error and none may panic, so the upload
// path is never affected by observability.
//
// Counts are kept twice: in Prometheus collectors for scraping and in atomic
// counters so the health endpoint can read a summary back without scraping.
type Recorder struct {
	success            atomic.Int64
	failure            atomic.Int64
	validationFailure  atomic.Int64
	storeFailure       atomic.Int64
	durationTotalNanos atomic.Int64
	durationSamples    atomic.Int64

	promSuccess  prometheus.Counter
	promFailures *prometheus.CounterVec
	promDuration prometheus.Histogram

	logger *log.Logger
}

// Summary is the derived view served to health-check collaborators.
type Summary struct {
	TotalUploads           int64   `json:"total_uploads"`
	SuccessCount           int64   `json:"success_count"`
	FailureCount           int64   `json:"failure_count"`
	ValidationFailureCount int64   `json:"validation_failure_count"`
	StoreFailureCount      int64   `json:"store_failure_count"`
	SuccessRate            float64 `json:"success_rate"`
	FailureRate            float64 `json:"failure_rate"`
	AverageDurationMs      float64 `json:"average_duration_ms"`
}

func NewRecorder(reg prometheus.Registerer, logger *log.Logger) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		promSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "file_upload_success_total",
			Help: "Total number of successful profile image uploads.",
		}),
		promFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "file_upload_failure_total",
			Help: "Total number of failed profile image uploads by failure type.",
		}, []string{"type"}),
		promDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "file_upload_duration_seconds",
			Help:    "End-to-end duration of profile image upload attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		logger: logger,
	}

	r.promSuccess = registerCounter(reg, r.promSuccess)
	r.promFailures = registerCounterVec(reg, r.promFailures)
	r.promDuration = registerHistogram(reg, r.promDuration)

	return r
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram) prometheus.Histogram {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
	}
	return h
}

// RecordSuccess counts a successful upload with its context.
func (r *Recorder) RecordSuccess(customerID int64, fileName string, size int64, contentType string) {
	r.success.Add(1)
	r.promSuccess.Inc()
	r.logger.Info("upload succeeded",
		"customer_id", customerID, "file_name", fileName,
		"file_size", size, "content_type", contentType)
}

// RecordFailure counts a general failure (reference update, IO, unexpected).
func (r *Recorder) RecordFailure(reason string) {
	r.failure.Add(1)
	r.promFailures.WithLabelValues("general").Inc()
	r.logger.Warn("upload failed", "reason", reason)
}

// RecordValidationFailure counts a rejected file.
func (r *Recorder) RecordValidationFailure(kind, reason string) {
	r.validationFailure.Add(1)
	r.promFailures.WithLabelValues("validation").Inc()
	r.logger.Warn("upload validation failed", "kind", kind, "reason", reason)
}

// RecordStoreFailure counts an object store failure.
func (r *Recorder) RecordStoreFailure(op, reason string) {
	r.storeFailure.Add(1)
	r.promFailures.WithLabelValues("store").Inc()
	r.logger.Warn("object store failure", "op", op, "reason", reason)
}

// RecordDuration adds a duration sample for one upload attempt.
func (r *Recorder) RecordDuration(d time.Duration) {
	r.durationTotalNanos.Add(int64(d))
	r.durationSamples.Add(1)
	r.promDuration.Observe(d.Seconds())
}

// StartTimer returns a stop function that records the elapsed time when
// called. Deferring the stop guarantees a sample on every exit path.
func (r *Recorder) StartTimer() func() {
	start := time.Now()
	return func() {
		r.RecordDuration(time.Since(start))
	}
}

func (r *Recorder) SuccessCount() int64           { return r.success.Load() }
func (r *Recorder) FailureCount() int64           { return r.failure.Load() }
func (r *Recorder) ValidationFailureCount() int64 { return r.validationFailure.Load() }
func (r *Recorder) StoreFailureCount() int64      { return r.storeFailure.Load() }

// AverageDurationMs returns the mean recorded duration in milliseconds.
func (r *Recorder) AverageDurationMs() float64 {
	samples := r.durationSamples.Load()
	if samples == 0 {
		return 0
	}
	return float64(r.durationTotalNanos.Load()) / float64(samples) / float64(time.Millisecond)
}

// Summarize derives the current totals and rates.
func (r *Recorder) Summarize() Summary {
	s := Summary{
		SuccessCount:           r.success.Load(),
		FailureCount:           r.failure.Load(),
		ValidationFailureCount: r.validationFailure.Load(),
		StoreFailureCount:      r.storeFailure.Load(),
		AverageDurationMs:      r.AverageDurationMs(),
	}
	s.TotalUploads = s.SuccessCount + s.FailureCount + s.ValidationFailureCount + s.StoreFailureCount
	if s.TotalUploads > 0 {
		s.SuccessRate = float64(s.SuccessCount) / float64(s.TotalUploads)
		s.FailureRate = 1 - s.SuccessRate
	}
	return s
}
