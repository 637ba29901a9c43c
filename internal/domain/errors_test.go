package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrSessionNotFound, KindNotFound},
		{fmt.Errorf("lookup: %w", ErrNotTeacher), KindAuthorization},
		{ErrAlreadyAnswered, KindStateConflict},
		{Invalid("%s is required", "sessionCode"), KindValidation},
		{Upstream("load question", errors.New("connection refused")), KindUpstream},
		{errors.New("boom"), KindUpstream},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestClientMessageHidesUpstreamDetail(t *testing.T) {
	err := Upstream("load topic", errors.New("dial tcp 10.0.0.3:5432: connection refused"))
	if msg := ClientMessage(err); msg == err.Error() {
		t.Fatalf("expected upstream detail to be hidden, got %q", msg)
	}
	if msg := ClientMessage(ErrAlreadyAnswered); msg != ErrAlreadyAnswered.Error() {
		t.Fatalf("expected rejection text to pass through, got %q", msg)
	}
}

func TestCorrectOptionID(t *testing.T) {
	q := Question{ID: 1, Options: []Option{{ID: 10}, {ID: 11, Correct: true}, {ID: 12, Correct: true}}}
	id, ok := q.CorrectOptionID()
	if !ok || id != 11 {
		t.Fatalf("expected first correct option 11, got %d ok=%v", id, ok)
	}
	if !q.HasOption(12) || q.HasOption(99) {
		t.Fatalf("HasOption mismatch")
	}
	if _, ok := (Question{ID: 2, Options: []Option{{ID: 1}}}).CorrectOptionID(); ok {
		t.Fatalf("expected no correct option")
	}
}
