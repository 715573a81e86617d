package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notes-upload/internal/wizard"
)

// Recorder holds the wizard collectors on its own registry.
type Recorder struct {
	registry       *prometheus.Registry
	submissions    *prometheus.CounterVec
	submitDuration prometheus.Histogram
	filesRejected  prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_upload_submissions_total",
			Help: "Submit attempts by outcome.",
		}, []string{"outcome"}),
		submitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notes_upload_submit_duration_seconds",
			Help:    "Time spent in submit, including the backend call.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		filesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notes_upload_files_rejected_total",
			Help: "Selected files ignored because they are not PDFs.",
		}),
	}
	r.registry.MustRegister(r.submissions, r.submitDuration, r.filesRejected)
	return r
}

func (r *Recorder) FileRejected() {
	r.filesRejected.Inc()
}

func (r *Recorder) SubmitObserved(kind wizard.Kind, elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	r.submissions.WithLabelValues(kind.String()).Inc()
	r.submitDuration.Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler exposes metrics in Prometheus text format.
func (r *Recorder) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

var _ wizard.Metrics = (*Recorder)(nil)
