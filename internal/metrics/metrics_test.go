package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.SessionsActive(3)
	r.QuestionClosed("timer")
	r.QuestionClosed("timer")
	r.QuestionClosed("all_answered")
	r.AnswerSubmitted(true)
	r.AnswerSubmitted(false)
	r.Persisted(nil)
	r.Persisted(errors.New("boom"))

	if got := testutil.ToFloat64(r.sessionsActive); got != 3 {
		t.Fatalf("expected 3 active sessions, got %v", got)
	}
	if got := testutil.ToFloat64(r.questionsClosed.WithLabelValues("timer")); got != 2 {
		t.Fatalf("expected 2 timer closes, got %v", got)
	}
	if got := testutil.ToFloat64(r.answers.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("expected 1 rejected answer, got %v", got)
	}
	if got := testutil.ToFloat64(r.persisted.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 persistence error, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.QuestionClosed("teacher")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `live_quiz_questions_closed_total{trigger="teacher"} 1`) {
		t.Fatalf("metric missing from output:\n%s", body)
	}
}
