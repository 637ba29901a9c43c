package app

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// SessionRepository owns the live sessions of this process (in-memory, with
// optional Redis code reservation). Implementations never take a session's
// lock, so callers may use them while holding one.
type SessionRepository interface {
	// Create picks a unique code, shuffles the question IDs and stores the session.
	Create(ctx context.Context, params SessionParams) (*Session, error)
	Get(code string) (*Session, bool)
	GetByTeacher(identity string) (*Session, bool)
	GetByParticipant(identity string) (*Session, bool)
	// BindTeacher moves the teacher index of code from oldIdentity to newIdentity.
	BindTeacher(code, oldIdentity, newIdentity string)
	BindParticipant(code, identity string)
	UnbindParticipant(identity string)
	// Delete is idempotent and drops every index entry that points at code.
	Delete(code string)
	Len() int
	// DropAll empties the repository and returns what it held.
	DropAll() []*Session
}

// SessionParams are the inputs for a new session.
type SessionParams struct {
	TopicID            int64
	TeacherIdentity    string
	TeacherToken       string
	SecondsPerQuestion int
	QuestionIDs        []int64
	Now                time.Time
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCodeLength yields 36^4 (about 1.7M) codes.
const DefaultCodeLength = 4

// MaxCodeLength matches the gateway's code validation and the archive column.
const MaxCodeLength = 10

// GenerateCode draws a random code from the uppercase alphanumeric alphabet.
func GenerateCode(rnd *rand.Rand, length int) string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(codeAlphabet[rnd.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// ShuffleQuestions returns a uniformly permuted copy of ids.
func ShuffleQuestions(rnd *rand.Rand, ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// NormalizeCode upper-cases and trims a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
