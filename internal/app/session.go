package app

import (
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/clock"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/ranking"
)

// questionPhase guards the open/close transitions of the current question.
// Both the timer path and the all-answered path must observe phaseOpen with
// a matching sequence number before they may close.
type questionPhase int

const (
	phaseIdle questionPhase = iota
	// phaseLoading: the next question is being fetched outside the lock.
	phaseLoading
	phaseOpen
)

// Session is one live run of a topic. Every field is guarded by mu; the
// controller holds mu for the whole read-modify-write of an event.
type Session struct {
	code string

	mu                 sync.Mutex
	topicID            int64
	teacherIdentity    string
	teacherToken       string
	secondsPerQuestion int
	queue              []int64
	stage              domain.Stage
	phase              questionPhase
	seq                uint64
	current            *openQuestion
	participants       map[string]*participant
	pending            map[string]pendingAnswer
	answered           []domain.AnsweredQuestion
	createdAt          time.Time
	startedAt          time.Time
	finishedAt         time.Time
	ended              bool
}

type openQuestion struct {
	seq             uint64
	id              int64
	correctOptionID int64
	optionIDs       map[int64]struct{}
	openedAt        time.Time
	deadline        time.Time
}

type pendingAnswer struct {
	optionID int64
	at       time.Time
}

type participant struct {
	identity string
	name     string
	score    int
	correct  int
	wrong    int
	joinedAt time.Time
	answers  []domain.AnswerRecord
}

// NewSession builds a session in the Waiting stage. params.QuestionIDs is
// used as the queue order as-is; repositories shuffle before calling.
func NewSession(code string, params SessionParams) *Session {
	queue := make([]int64, len(params.QuestionIDs))
	copy(queue, params.QuestionIDs)
	return &Session{
		code:               code,
		topicID:            params.TopicID,
		teacherIdentity:    params.TeacherIdentity,
		teacherToken:       params.TeacherToken,
		secondsPerQuestion: params.SecondsPerQuestion,
		queue:              queue,
		stage:              domain.StageWaiting,
		participants:       make(map[string]*participant),
		pending:            make(map[string]pendingAnswer),
		createdAt:          params.Now,
	}
}

// Code is immutable and safe to read without the lock.
func (s *Session) Code() string { return s.code }

// TeacherIdentity returns the connection currently acting as teacher.
func (s *Session) TeacherIdentity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teacherIdentity
}

// Stage returns the current stage.
func (s *Session) Stage() domain.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Queue returns a copy of the remaining question IDs.
func (s *Session) Queue() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.queue))
	copy(out, s.queue)
	return out
}

// --- question sequencer ---

// PopNext removes and returns the queue head.
func (s *Session) PopNext() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popNextLocked()
}

// HasRemaining reports whether unserved questions are left.
func (s *Session) HasRemaining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

func (s *Session) peekNextLocked() (int64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0], true
}

func (s *Session) popNextLocked() (int64, bool) {
	if s.stage == domain.StageFinished || len(s.queue) == 0 {
		return 0, false
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	return id, true
}

// --- answer collector ---

// RecordAnswer stores the first answer of a participant for the open question.
// Later submissions return false and leave the first one in place.
func (s *Session) RecordAnswer(identity string, optionID int64, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordAnswerLocked(identity, optionID, at)
}

// AllAnswered is true iff there is at least one participant and every one of
// them has a pending answer.
func (s *Session) AllAnswered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allAnsweredLocked()
}

// ClearAnswers drops every pending answer.
func (s *Session) ClearAnswers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]pendingAnswer)
}

func (s *Session) recordAnswerLocked(identity string, optionID int64, at time.Time) bool {
	if _, ok := s.pending[identity]; ok {
		return false
	}
	s.pending[identity] = pendingAnswer{optionID: optionID, at: at}
	return true
}

func (s *Session) allAnsweredLocked() bool {
	return len(s.participants) > 0 && len(s.pending) >= len(s.participants)
}

// --- participants ---

func (s *Session) addParticipantLocked(identity, name string, now time.Time) {
	s.participants[identity] = &participant{identity: identity, name: name, joinedAt: now}
}

func (s *Session) removeParticipantLocked(identity string) bool {
	if _, ok := s.participants[identity]; !ok {
		return false
	}
	delete(s.participants, identity)
	delete(s.pending, identity)
	return true
}

// participantIDsLocked returns identities in a stable order so event fan-out
// is deterministic.
func (s *Session) participantIDsLocked() []string {
	ids := make([]string, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Session) rosterLocked() []domain.RosterEntry {
	roster := make([]domain.RosterEntry, 0, len(s.participants))
	for _, id := range s.participantIDsLocked() {
		p := s.participants[id]
		roster = append(roster, domain.RosterEntry{Identity: p.identity, Name: p.name, Score: p.score})
	}
	return roster
}

func (s *Session) playersLocked() []ranking.Player {
	players := make([]ranking.Player, 0, len(s.participants))
	for _, p := range s.participants {
		players = append(players, ranking.Player{Identity: p.identity, Name: p.name, Score: p.score})
	}
	return players
}

// --- question lifecycle ---

// openQuestionLocked makes q the current question. The caller arms the timer.
func (s *Session) openQuestionLocked(q domain.Question, correctOptionID int64, now time.Time) *openQuestion {
	s.seq++
	options := make(map[int64]struct{}, len(q.Options))
	for _, opt := range q.Options {
		options[opt.ID] = struct{}{}
	}
	s.current = &openQuestion{
		seq:             s.seq,
		id:              q.ID,
		correctOptionID: correctOptionID,
		optionIDs:       options,
		openedAt:        now,
		deadline:        clock.Deadline(now, s.secondsPerQuestion),
	}
	s.pending = make(map[string]pendingAnswer)
	s.phase = phaseOpen
	return s.current
}

// questionOutcome is the scoring result of one participant for a closed question.
type questionOutcome struct {
	identity string
	answer   *int64
	correct  bool
	delta    int
	total    int
}

// closeQuestionLocked scores the open question, logs it and clears the
// question state. It returns false when no question is open (already closed
// by the competing path), in which case nothing changed.
func (s *Session) closeQuestionLocked(points int) (*openQuestion, []questionOutcome, bool) {
	q := s.current
	if q == nil || s.phase != phaseOpen {
		return nil, nil, false
	}
	s.current = nil
	s.phase = phaseIdle

	s.answered = append(s.answered, domain.AnsweredQuestion{QuestionID: q.id, CorrectOptionID: q.correctOptionID})

	outcomes := make([]questionOutcome, 0, len(s.participants))
	for _, id := range s.participantIDsLocked() {
		p := s.participants[id]
		record := domain.AnswerRecord{QuestionID: q.id}
		out := questionOutcome{identity: id}

		if ans, ok := s.pending[id]; ok {
			option := ans.optionID
			at := ans.at
			responseMs := ans.at.Sub(q.openedAt).Milliseconds()
			record.SelectedOptionID = &option
			record.AnsweredAt = &at
			record.ResponseTimeMs = &responseMs
			out.answer = &option
			out.correct = option == q.correctOptionID
		}
		record.IsCorrect = out.correct
		out.delta = ranking.Award(out.correct, points)

		p.score += out.delta
		if out.correct {
			p.correct++
		} else {
			p.wrong++
		}
		p.answers = append(p.answers, record)
		out.total = p.score
		outcomes = append(outcomes, out)
	}

	s.pending = make(map[string]pendingAnswer)
	return q, outcomes, true
}

func (s *Session) stateLocked(now time.Time) domain.SessionState {
	state := domain.SessionState{
		Code:               s.code,
		Stage:              s.stage,
		Participants:       s.rosterLocked(),
		QuestionsRemaining: len(s.queue),
	}
	if s.current != nil {
		id := s.current.id
		state.CurrentQuestionID = &id
		state.SecondsRemaining = clock.SecondsRemaining(now, s.current.deadline)
	}
	return state
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Code:               s.code,
		TopicID:            s.topicID,
		TeacherIdentity:    s.teacherIdentity,
		StartedAt:          s.startedAt,
		FinishedAt:         s.finishedAt,
		SecondsPerQuestion: s.secondsPerQuestion,
		AnsweredQuestions:  append([]domain.AnsweredQuestion(nil), s.answered...),
		Participants:       make([]domain.Participant, 0, len(s.participants)),
	}
	if snap.StartedAt.IsZero() {
		snap.StartedAt = s.createdAt
	}
	for _, id := range s.participantIDsLocked() {
		p := s.participants[id]
		snap.Participants = append(snap.Participants, domain.Participant{
			Identity:     p.identity,
			DisplayName:  p.name,
			Score:        p.score,
			CorrectCount: p.correct,
			WrongCount:   p.wrong,
			JoinedAt:     p.joinedAt,
			Answers:      append([]domain.AnswerRecord(nil), p.answers...),
		})
	}
	return snap
}
