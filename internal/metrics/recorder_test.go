package metrics

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func newTestRecorder() *Recorder {
	return NewRecorder(prometheus.NewRegistry(), log.New(io.Discard))
}

func TestRecorder_Counters(t *testing.T) {
	r := newTestRecorder()

	r.RecordSuccess(1, "a.jpg", 100, "image/jpeg")
	r.RecordSuccess(2, "b.png", 200, "image/png")
	r.RecordFailure("database error")
	r.RecordValidationFailure("file_type", "text/plain not allowed")
	r.RecordStoreFailure("put", "connection refused")

	assert.Equal(t, int64(2), r.SuccessCount())
	assert.Equal(t, int64(1), r.FailureCount())
	assert.Equal(t, int64(1), r.ValidationFailureCount())
	assert.Equal(t, int64(1), r.StoreFailureCount())
}

func TestRecorder_Summary(t *testing.T) {
	r := newTestRecorder()

	r.RecordSuccess(1, "a.jpg", 100, "image/jpeg")
	r.RecordSuccess(2, "b.jpg", 100, "image/jpeg")
	r.RecordSuccess(3, "c.jpg", 100, "image/jpeg")
	r.RecordValidationFailure("file_size", "too large")
	r.RecordDuration(100 * time.Millisecond)
	r.RecordDuration(300 * time.Millisecond)

	s := r.Summarize()
	assert.Equal(t, int64(4), s.TotalUploads)
	assert.Equal(t, int64(3), s.SuccessCount)
	assert.InDelta(t, 0.75, s.SuccessRate, 1e-9)
	assert.InDelta(t, 0.25, s.FailureRate, 1e-9)
	assert.InDelta(t, 200.0, s.AverageDurationMs, 1e-6)
}

func TestRecorder_EmptySummaryHasZeroRates(t *testing.T) {
	s := newTestRecorder().Summarize()

	assert.Zero(t, s.TotalUploads)
	assert.Zero(t, s.SuccessRate)
	assert.Zero(t, s.FailureRate)
	assert.Zero(t, s.AverageDurationMs)
}

func TestRecorder_Timer(t *testing.T) {
	r := newTestRecorder()

	stop := r.StartTimer()
	time.Sleep(5 * time.Millisecond)
	stop()

	s := r.Summarize()
	assert.Greater(t, s.AverageDurationMs, 0.0)
}

func TestRecorder_ConcurrentIncrements(t *testing.T) {
	r := newTestRecorder()

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				r.RecordSuccess(1, "a.jpg", 1, "image/jpeg")
				r.RecordFailure("x")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), r.SuccessCount())
	assert.Equal(t, int64(workers*perWorker), r.FailureCount())
}

func TestRecorder_ReusesExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger := log.New(io.Discard)

	// Two recorders on one registry must not panic on duplicate registration.
	a := NewRecorder(reg, logger)
	b := NewRecorder(reg, logger)

	a.RecordSuccess(1, "a.jpg", 1, "image/jpeg")
	b.RecordSuccess(2, "b.jpg", 1, "image/jpeg")

	assert.Equal(t, int64(1), a.SuccessCount())
	assert.Equal(t, int64(1), b.SuccessCount())
}
