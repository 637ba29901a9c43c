// Package metrics exposes session lifecycle counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements app.Observer on top of Prometheus collectors.
type Recorder struct {
	registry        *prometheus.Registry
	sessionsActive  prometheus.Gauge
	questionsClosed *prometheus.CounterVec
	answers         *prometheus.CounterVec
	persisted       *prometheus.CounterVec
}

// New registers the collectors on a dedicated registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "live_quiz_sessions_active",
			Help: "Current number of live sessions",
		}),
		questionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "live_quiz_questions_closed_total",
			Help: "Total number of closed questions",
		}, []string{"trigger"}), // trigger: all_answered/timer/teacher
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "live_quiz_answers_total",
			Help: "Total number of answer submissions",
		}, []string{"result"}), // result: accepted/rejected
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "live_quiz_persist_total",
			Help: "Total number of finished session persistence attempts",
		}, []string{"result"}), // result: ok/error
	}
	r.registry.MustRegister(
		r.sessionsActive,
		r.questionsClosed,
		r.answers,
		r.persisted,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) SessionsActive(n int) {
	r.sessionsActive.Set(float64(n))
}

func (r *Recorder) QuestionClosed(trigger string) {
	r.questionsClosed.WithLabelValues(trigger).Inc()
}

func (r *Recorder) AnswerSubmitted(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	r.answers.WithLabelValues(result).Inc()
}

func (r *Recorder) Persisted(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.persisted.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, extra collectors).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
