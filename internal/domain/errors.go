package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a rejection so the gateway can report it uniformly.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindStateConflict Kind = "state_conflict"
	KindUpstream      Kind = "upstream"
)

// Error carries a Kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

var (
	// ErrSessionNotFound is returned for unknown or already destroyed session codes.
	ErrSessionNotFound = newError(KindNotFound, "session not found")
	// ErrTopicNotFound indicates the catalog has no such topic.
	ErrTopicNotFound = newError(KindNotFound, "topic not found")
	// ErrQuestionNotFound indicates the catalog has no such question.
	ErrQuestionNotFound = newError(KindNotFound, "question not found")
	// ErrNoQuestions is returned when a topic has an empty question set.
	ErrNoQuestions = newError(KindNotFound, "no questions found for topic")

	ErrNotTeacher          = newError(KindAuthorization, "not authorized")
	ErrNotParticipant      = newError(KindAuthorization, "not in this session")
	ErrInvalidTeacherToken = newError(KindAuthorization, "invalid teacher token")

	ErrAlreadyStarted     = newError(KindStateConflict, "cannot join - quiz already started")
	ErrNotWaiting         = newError(KindStateConflict, "session already started")
	ErrNotRunning         = newError(KindStateConflict, "session not running")
	ErrAlreadyFinished    = newError(KindStateConflict, "session already finished")
	ErrNoParticipants     = newError(KindStateConflict, "no students in session")
	ErrNoOpenQuestion     = newError(KindStateConflict, "no question is open")
	ErrAnswerWindowClosed = newError(KindStateConflict, "cannot answer - time expired")
	ErrAlreadyAnswered    = newError(KindStateConflict, "already answered this question")
	ErrQuestionLoading    = newError(KindStateConflict, "next question is still loading")
	ErrAlreadyJoined      = newError(KindStateConflict, "connection already belongs to a session")
	ErrAlreadyHosting     = newError(KindStateConflict, "connection already hosts a session")

	ErrUnknownOption = newError(KindValidation, "option does not belong to the open question")

	// ErrNoCorrectOption means the catalog served a question without a correct option.
	ErrNoCorrectOption = newError(KindUpstream, "question has no correct option")
	// ErrCodeSpaceExhausted means no free session code was found within the retry bound.
	ErrCodeSpaceExhausted = newError(KindUpstream, "session code space exhausted")
)

// Invalid builds a validation error for a malformed inbound event.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// Upstream wraps a collaborator failure (catalog, storage, cache).
func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf classifies err. Unclassified errors count as upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// ClientMessage is the text safe to show the rejected caller. Upstream
// details stay in the logs.
func ClientMessage(err error) string {
	if KindOf(err) == KindUpstream {
		return "service temporarily unavailable, please retry"
	}
	return err.Error()
}
