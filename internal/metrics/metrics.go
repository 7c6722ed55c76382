package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CertificatesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "certportal_certificates_generated_total", Help: "Total certificates rendered, stored and recorded"},
	)
	CertificatesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "certportal_certificates_failed_total", Help: "Total participants that failed, by the stage they reached and the kind of error"},
		[]string{"stage", "reason"},
	)
	CertificateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certportal_certificate_duration_seconds",
			Help:    "Time spent on one participant",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
	Batches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "certportal_batches_total", Help: "Total generate requests by outcome"},
		[]string{"mode", "outcome"},
	)
)

func Register() {
	prometheus.MustRegister(CertificatesGenerated, CertificatesFailed, CertificateDuration, Batches)
}

// Observer feeds the per participant outcomes of the batch generator into the counters.
type Observer struct{}

var _ certgen.Observer = Observer{}

func (Observer) ObserveItem(result certgen.ItemResult, duration time.Duration) {
	CertificateDuration.Observe(duration.Seconds())

	if result.Succeeded() {
		CertificatesGenerated.Inc()
		return
	}

	CertificatesFailed.WithLabelValues(result.Stage.String(), Reason(result.Err)).Inc()
}

// ObserveBatch counts one generate request. mode is sync or async.
func ObserveBatch(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = Reason(err)
	}
	Batches.WithLabelValues(mode, outcome).Inc()
}

// Reason maps an error to a low cardinality label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, certgen.ErrValidation):
		return "validation"
	case errors.Is(err, certgen.ErrTemplateNotFound):
		return "template_not_found"
	case errors.Is(err, certgen.ErrDecode):
		return "decode"
	case errors.Is(err, certgen.ErrEncode):
		return "encode"
	case errors.Is(err, certgen.ErrStorage):
		return "storage"
	case errors.Is(err, certgen.ErrPersistence):
		return "persistence"
	case errors.Is(err, certgen.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, certgen.ErrNoTemplates):
		return "no_templates"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}
