package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/clock"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/ranking"
)

// Catalog loads topic and question content (Postgres, cached, or static).
type Catalog interface {
	LoadTopic(ctx context.Context, topicID int64) (domain.Topic, error)
	LoadQuestionIDs(ctx context.Context, topicID int64) ([]int64, error)
	LoadQuestion(ctx context.Context, questionID int64) (domain.Question, error)
}

// Archive stores a finished session and returns its storage ID.
type Archive interface {
	PersistFinishedSession(ctx context.Context, snap domain.SessionSnapshot) (int64, error)
}

// Notifier delivers an event to one connection. Implementations must not
// block: the controller calls Notify while holding a session lock.
type Notifier interface {
	Notify(identity string, event domain.Event)
}

// Observer receives lifecycle counters (Prometheus in production).
type Observer interface {
	SessionsActive(n int)
	QuestionClosed(trigger string)
	AnswerSubmitted(accepted bool)
	Persisted(err error)
}

const (
	TriggerAllAnswered = "all_answered"
	TriggerTimer       = "timer"
	TriggerTeacher     = "teacher"
)

// Options tune the controller. Zero values fall back to defaults.
type Options struct {
	PointsCorrect  int
	DefaultSeconds int
	CatalogTimeout time.Duration
	PersistTimeout time.Duration
	Clock          clock.Clock
	Logger         zerolog.Logger
	Observer       Observer
}

// Controller is the session lifecycle state machine. It is safe for
// concurrent use; events for one session are serialized on its lock.
type Controller struct {
	sessions SessionRepository
	catalog  Catalog
	archive  Archive
	notifier Notifier
	timers   *TimerSupervisor
	clock    clock.Clock
	log      zerolog.Logger
	obs      Observer

	points         int
	defaultSeconds int
	catalogTimeout time.Duration
	persistTimeout time.Duration

	persisting sync.WaitGroup
}

func NewController(sessions SessionRepository, catalog Catalog, archive Archive, notifier Notifier, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.PointsCorrect <= 0 {
		opts.PointsCorrect = ranking.PointsCorrect
	}
	if opts.DefaultSeconds <= 0 {
		opts.DefaultSeconds = 20
	}
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = 3 * time.Second
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 10 * time.Second
	}
	return &Controller{
		sessions:       sessions,
		catalog:        catalog,
		archive:        archive,
		notifier:       notifier,
		timers:         NewTimerSupervisor(opts.Clock),
		clock:          opts.Clock,
		log:            opts.Logger.With().Str("component", "controller").Logger(),
		obs:            opts.Observer,
		points:         opts.PointsCorrect,
		defaultSeconds: opts.DefaultSeconds,
		catalogTimeout: opts.CatalogTimeout,
		persistTimeout: opts.PersistTimeout,
	}
}

// Timers exposes the supervisor for inspection in tests and diagnostics.
func (c *Controller) Timers() *TimerSupervisor { return c.timers }

// CreateSession registers a Waiting session for topicID owned by teacher.
func (c *Controller) CreateSession(ctx context.Context, teacher string, topicID int64) (domain.SessionCreated, error) {
	if topicID <= 0 {
		return domain.SessionCreated{}, domain.Invalid("topicId is required")
	}
	if _, ok := c.sessions.GetByTeacher(teacher); ok {
		return domain.SessionCreated{}, domain.ErrAlreadyHosting
	}
	if _, ok := c.sessions.GetByParticipant(teacher); ok {
		return domain.SessionCreated{}, domain.ErrAlreadyJoined
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	topic, err := c.catalog.LoadTopic(loadCtx, topicID)
	if err != nil {
		return domain.SessionCreated{}, catalogError("load topic", err)
	}
	ids, err := c.catalog.LoadQuestionIDs(loadCtx, topicID)
	if err != nil {
		return domain.SessionCreated{}, catalogError("load question ids", err)
	}
	if len(ids) == 0 {
		return domain.SessionCreated{}, domain.ErrNoQuestions
	}

	seconds := topic.SecondsPerQuestion
	if seconds <= 0 {
		seconds = c.defaultSeconds
		topic.SecondsPerQuestion = seconds
	}

	s, err := c.sessions.Create(ctx, SessionParams{
		TopicID:            topicID,
		TeacherIdentity:    teacher,
		TeacherToken:       uuid.NewString(),
		SecondsPerQuestion: seconds,
		QuestionIDs:        ids,
		Now:                c.clock.Now(),
	})
	if err != nil {
		return domain.SessionCreated{}, catalogError("create session", err)
	}

	s.mu.Lock()
	created := domain.SessionCreated{
		Code:          s.code,
		TeacherToken:  s.teacherToken,
		Topic:         topic,
		QuestionCount: len(s.queue),
	}
	c.send(teacher, domain.EventSessionCreated, created)
	s.mu.Unlock()

	c.obs.SessionsActive(c.sessions.Len())
	c.log.Info().
		Str("session_code", created.Code).
		Int64("topic_id", topicID).
		Int("questions", created.QuestionCount).
		Int("seconds_per_question", seconds).
		Msg("session created")
	return created, nil
}

// TeacherJoin hands the teacher role of a session to identity when it
// presents the token issued at creation (reconnecting teachers).
func (c *Controller) TeacherJoin(ctx context.Context, identity, code, token string) (domain.SessionState, error) {
	s, err := c.lookup(code)
	if err != nil {
		return domain.SessionState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.teacherToken)) != 1 {
		return domain.SessionState{}, domain.ErrInvalidTeacherToken
	}
	if _, ok := s.participants[identity]; ok {
		return domain.SessionState{}, domain.ErrAlreadyJoined
	}
	if other, ok := c.sessions.GetByTeacher(identity); ok && other != s {
		return domain.SessionState{}, domain.ErrAlreadyHosting
	}
	if other, ok := c.sessions.GetByParticipant(identity); ok && other != s {
		return domain.SessionState{}, domain.ErrAlreadyJoined
	}

	old := s.teacherIdentity
	s.teacherIdentity = identity
	c.sessions.BindTeacher(s.code, old, identity)

	state := s.stateLocked(c.clock.Now())
	c.send(identity, domain.EventSessionState, state)
	c.log.Info().Str("session_code", s.code).Msg("teacher reattached")
	return state, nil
}

// Join adds a participant with score 0. Only allowed while Waiting.
func (c *Controller) Join(ctx context.Context, identity, code, displayName string) error {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return domain.Invalid("displayName is required")
	}
	s, err := c.lookup(code)
	if err != nil {
		return err
	}
	if other, ok := c.sessions.GetByParticipant(identity); ok && other != s {
		return domain.ErrAlreadyJoined
	}
	if _, ok := c.sessions.GetByTeacher(identity); ok {
		return domain.ErrAlreadyHosting
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return domain.ErrSessionNotFound
	}
	if s.stage != domain.StageWaiting {
		return domain.ErrAlreadyStarted
	}
	if _, ok := s.participants[identity]; ok {
		return domain.ErrAlreadyJoined
	}
	if s.teacherIdentity == identity {
		return domain.ErrAlreadyHosting
	}

	s.addParticipantLocked(identity, name, c.clock.Now())
	c.sessions.BindParticipant(s.code, identity)

	c.send(identity, domain.EventJoined, domain.Joined{Code: s.code, Name: name})
	c.send(s.teacherIdentity, domain.EventRosterUpdate, domain.RosterUpdate{Participants: s.rosterLocked()})
	c.log.Debug().Str("session_code", s.code).Str("name", name).Msg("participant joined")
	return nil
}

// Start moves a Waiting session to Running and opens its first question.
// The question is loaded without holding the session lock; a failed load
// leaves the session Waiting so the teacher can retry.
func (c *Controller) Start(ctx context.Context, identity, code string) error {
	s, err := c.lookup(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := c.checkTeacherLocked(s, identity); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.stage != domain.StageWaiting {
		s.mu.Unlock()
		return domain.ErrNotWaiting
	}
	if s.phase == phaseLoading {
		s.mu.Unlock()
		return domain.ErrQuestionLoading
	}
	if len(s.participants) == 0 {
		s.mu.Unlock()
		return domain.ErrNoParticipants
	}
	head, ok := s.peekNextLocked()
	if !ok {
		s.mu.Unlock()
		return domain.ErrNoQuestions
	}
	s.phase = phaseLoading
	s.mu.Unlock()

	q, correct, loadErr := c.loadQuestion(ctx, head)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return domain.ErrSessionNotFound
	}
	if s.phase != phaseLoading || s.stage != domain.StageWaiting {
		return domain.ErrNotWaiting
	}
	s.phase = phaseIdle
	if loadErr != nil {
		c.log.Error().Err(loadErr).Str("session_code", s.code).Int64("question_id", head).Msg("start failed to load question")
		c.dropBrokenHeadLocked(s, head, loadErr)
		return loadErr
	}
	if len(s.participants) == 0 {
		return domain.ErrNoParticipants
	}

	now := c.clock.Now()
	s.stage = domain.StageRunning
	s.startedAt = now
	s.popNextLocked()
	c.openQuestionLocked(s, q, correct, now)
	c.send(s.teacherIdentity, domain.EventSessionStarted, domain.SessionStarted{Code: s.code})
	c.log.Info().Str("session_code", s.code).Int("participants", len(s.participants)).Msg("session started")
	return nil
}

// SubmitAnswer records the first answer of a participant for the open
// question and closes the question once everybody has answered.
func (c *Controller) SubmitAnswer(ctx context.Context, identity, code string, optionID int64) (err error) {
	defer func() { c.obs.AnswerSubmitted(err == nil) }()

	s, err := c.lookup(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return domain.ErrSessionNotFound
	}
	if _, ok := s.participants[identity]; !ok {
		return domain.ErrNotParticipant
	}
	if s.stage != domain.StageRunning {
		return domain.ErrNotRunning
	}
	q := s.current
	if q == nil || s.phase != phaseOpen {
		return domain.ErrNoOpenQuestion
	}
	now := c.clock.Now()
	if clock.Expired(now, q.deadline) {
		return domain.ErrAnswerWindowClosed
	}
	if _, ok := q.optionIDs[optionID]; !ok {
		return domain.ErrUnknownOption
	}
	if !s.recordAnswerLocked(identity, optionID, now) {
		return domain.ErrAlreadyAnswered
	}

	c.send(identity, domain.EventAnswerAck, domain.AnswerAck{})
	c.send(s.teacherIdentity, domain.EventAnswerCount, domain.AnswerCount{Answered: len(s.pending), Total: len(s.participants)})

	if s.allAnsweredLocked() {
		c.closeQuestionLocked(s, TriggerAllAnswered)
	}
	return nil
}

// NextQuestion closes the open question, then opens the next one or
// finishes the session when the queue is exhausted.
func (c *Controller) NextQuestion(ctx context.Context, identity, code string) error {
	s, err := c.lookup(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := c.checkTeacherLocked(s, identity); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.stage != domain.StageRunning {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if s.phase == phaseLoading {
		s.mu.Unlock()
		return domain.ErrQuestionLoading
	}
	c.closeQuestionLocked(s, TriggerTeacher)

	head, ok := s.peekNextLocked()
	if !ok {
		c.finishLocked(s)
		s.mu.Unlock()
		return nil
	}
	s.phase = phaseLoading
	s.mu.Unlock()

	q, correct, loadErr := c.loadQuestion(ctx, head)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return domain.ErrSessionNotFound
	}
	if s.phase != phaseLoading || s.stage != domain.StageRunning {
		return domain.ErrNotRunning
	}
	s.phase = phaseIdle
	if loadErr != nil {
		c.log.Error().Err(loadErr).Str("session_code", s.code).Int64("question_id", head).Msg("next question failed to load")
		c.dropBrokenHeadLocked(s, head, loadErr)
		return loadErr
	}

	s.popNextLocked()
	c.openQuestionLocked(s, q, correct, c.clock.Now())
	return nil
}

// Finish ends the session on the teacher's request.
func (c *Controller) Finish(ctx context.Context, identity, code string) error {
	s, err := c.lookup(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := c.checkTeacherLocked(s, identity); err != nil {
		return err
	}
	if s.stage == domain.StageFinished {
		return domain.ErrAlreadyFinished
	}
	c.closeQuestionLocked(s, TriggerTeacher)
	c.finishLocked(s)
	return nil
}

// Leave handles an explicit leave. A leaving teacher ends the session.
func (c *Controller) Leave(ctx context.Context, identity, code string) error {
	s, err := c.lookup(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return domain.ErrSessionNotFound
	}
	if s.teacherIdentity == identity {
		c.endLocked(s, "Teacher left")
		return nil
	}
	if !c.removeParticipantLocked(s, identity) {
		return domain.ErrNotParticipant
	}
	c.send(identity, domain.EventLeft, domain.Left{})
	return nil
}

// Disconnect cleans up after a closed connection, whichever role it had.
func (c *Controller) Disconnect(ctx context.Context, identity string) {
	if s, ok := c.sessions.GetByParticipant(identity); ok {
		s.mu.Lock()
		if !s.ended {
			c.removeParticipantLocked(s, identity)
		}
		s.mu.Unlock()
	}
	if s, ok := c.sessions.GetByTeacher(identity); ok {
		s.mu.Lock()
		if !s.ended && s.teacherIdentity == identity {
			c.endLocked(s, "Teacher disconnected")
		}
		s.mu.Unlock()
	}
}

// State reports the session state to the caller.
func (c *Controller) State(ctx context.Context, identity, code string) (domain.SessionState, error) {
	s, err := c.lookup(code)
	if err != nil {
		return domain.SessionState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	state := s.stateLocked(c.clock.Now())
	c.send(identity, domain.EventSessionState, state)
	return state, nil
}

// Shutdown cancels every timer, drops every session and waits for in-flight
// persistence until ctx is done.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.timers.StopAll()
	for _, s := range c.sessions.DropAll() {
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()
	}
	c.obs.SessionsActive(0)

	done := make(chan struct{})
	go func() {
		c.persisting.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session persistence: %w", ctx.Err())
	}
}

// --- internals (callers hold s.mu where the name says Locked) ---

func (c *Controller) lookup(code string) (*Session, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.Invalid("sessionCode is required")
	}
	s, ok := c.sessions.Get(code)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (c *Controller) checkTeacherLocked(s *Session, identity string) error {
	if s.ended {
		return domain.ErrSessionNotFound
	}
	if s.teacherIdentity != identity {
		return domain.ErrNotTeacher
	}
	return nil
}

func (c *Controller) loadQuestion(ctx context.Context, id int64) (domain.Question, int64, error) {
	loadCtx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()
	q, err := c.catalog.LoadQuestion(loadCtx, id)
	if err != nil {
		return domain.Question{}, 0, catalogError("load question", err)
	}
	correct, ok := q.CorrectOptionID()
	if !ok {
		return domain.Question{}, 0, domain.ErrNoCorrectOption
	}
	return q, correct, nil
}

// dropBrokenHeadLocked removes head from the queue when the catalog can never
// serve it, so the next attempt moves on. Transient failures keep it queued.
func (c *Controller) dropBrokenHeadLocked(s *Session, head int64, err error) {
	if !errors.Is(err, domain.ErrQuestionNotFound) && !errors.Is(err, domain.ErrNoCorrectOption) {
		return
	}
	if id, ok := s.peekNextLocked(); !ok || id != head {
		return
	}
	s.popNextLocked()
	c.log.Warn().Str("session_code", s.code).Int64("question_id", head).Msg("skipping unservable question")
}

func (c *Controller) openQuestionLocked(s *Session, q domain.Question, correct int64, now time.Time) {
	open := s.openQuestionLocked(q, correct, now)

	views := make([]domain.OptionView, 0, len(q.Options))
	for _, opt := range q.Options {
		views = append(views, domain.OptionView{ID: opt.ID, Text: opt.Text})
	}
	payload := domain.QuestionOpened{ID: q.ID, Text: q.Text, Options: views, TimeLimitSeconds: s.secondsPerQuestion}
	c.broadcastLocked(s, domain.EventQuestionOpened, payload)

	seq := open.seq
	c.timers.Arm(s.code, time.Duration(s.secondsPerQuestion)*time.Second, func() {
		c.expire(s, seq)
	})
	c.log.Debug().Str("session_code", s.code).Int64("question_id", q.ID).Uint64("seq", seq).Msg("question opened")
}

// expire is the timer path. It is a no-op unless question seq is still open.
func (c *Controller) expire(s *Session, seq uint64) {
	defer c.recoverSession(s.code, "timer")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.current == nil || s.phase != phaseOpen || s.current.seq != seq {
		return
	}
	c.broadcastLocked(s, domain.EventTimerExpired, domain.TimerExpired{QuestionID: s.current.id, Message: "Time is up!"})
	c.closeQuestionLocked(s, TriggerTimer)
}

// closeQuestionLocked scores and announces the open question. Returns false
// when there was nothing to close.
func (c *Controller) closeQuestionLocked(s *Session, trigger string) bool {
	if s.current == nil || s.phase != phaseOpen {
		return false
	}
	if trigger != TriggerTimer {
		c.timers.Cancel(s.code)
	}

	c.send(s.teacherIdentity, domain.EventAnswerCount, domain.AnswerCount{Answered: len(s.pending), Total: len(s.participants)})

	q, outcomes, ok := s.closeQuestionLocked(c.points)
	if !ok {
		return false
	}
	for _, out := range outcomes {
		c.send(out.identity, domain.EventAnswerResult, domain.AnswerResult{
			Correct:         out.correct,
			CorrectOptionID: q.correctOptionID,
			YourAnswer:      out.answer,
			ScoreDelta:      out.delta,
			ScoreTotal:      out.total,
		})
	}
	c.broadcastLocked(s, domain.EventQuestionClosed, domain.QuestionClosed{QuestionID: q.id})
	c.send(s.teacherIdentity, domain.EventRanking, domain.Ranking{Players: rankedPlayers(ranking.Rank(s.playersLocked()))})

	c.obs.QuestionClosed(trigger)
	c.log.Debug().Str("session_code", s.code).Int64("question_id", q.id).Str("trigger", trigger).Msg("question closed")
	return true
}

// finishLocked moves the session to Finished and hands it to the archive.
func (c *Controller) finishLocked(s *Session) {
	c.timers.Cancel(s.code)
	s.phase = phaseIdle
	s.stage = domain.StageFinished
	s.finishedAt = c.clock.Now()

	players := s.playersLocked()
	winners := ranking.Winners(players)
	payload := domain.QuizFinished{
		Winners:    make([]domain.Winner, 0, len(winners)),
		Scoreboard: rankedPlayers(ranking.Rank(players)),
	}
	for _, w := range winners {
		payload.Winners = append(payload.Winners, domain.Winner{Name: w.Name, Score: w.Score})
	}
	c.broadcastLocked(s, domain.EventQuizFinished, payload)

	snap := s.snapshotLocked()
	c.log.Info().
		Str("session_code", s.code).
		Int("questions_served", snap.TotalQuestions()).
		Int("participants", len(snap.Participants)).
		Msg("session finished")
	c.persistAsync(snap)
}

// persistAsync stores snap in the background. Failures are logged only; the
// live session already concluded for its clients. The session is dropped
// from the registry once the handoff completes either way.
func (c *Controller) persistAsync(snap domain.SessionSnapshot) {
	c.persisting.Add(1)
	go func() {
		defer c.persisting.Done()
		defer c.recoverSession(snap.Code, "persist")
		defer c.release(snap.Code)

		ctx, cancel := context.WithTimeout(context.Background(), c.persistTimeout)
		defer cancel()

		id, err := c.archive.PersistFinishedSession(ctx, snap)
		c.obs.Persisted(err)
		if err != nil {
			c.log.Error().Err(err).Str("session_code", snap.Code).Msg("failed to persist finished session")
			return
		}
		c.log.Info().Str("session_code", snap.Code).Int64("stored_id", id).Msg("session persisted")
	}()
}

// release removes a finished session from the registry.
func (c *Controller) release(code string) {
	s, ok := c.sessions.Get(code)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.stage == domain.StageFinished {
		s.ended = true
		c.sessions.Delete(code)
	}
	s.mu.Unlock()
	c.obs.SessionsActive(c.sessions.Len())
}

// endLocked destroys the session after its teacher departed.
func (c *Controller) endLocked(s *Session, reason string) {
	c.timers.Cancel(s.code)
	s.ended = true
	s.current = nil
	s.phase = phaseIdle
	for _, id := range s.participantIDsLocked() {
		c.send(id, domain.EventSessionEnded, domain.SessionEnded{Reason: reason})
	}
	c.sessions.Delete(s.code)
	c.obs.SessionsActive(c.sessions.Len())
	c.log.Info().Str("session_code", s.code).Str("reason", reason).Msg("session ended")
}

func (c *Controller) removeParticipantLocked(s *Session, identity string) bool {
	if !s.removeParticipantLocked(identity) {
		return false
	}
	c.sessions.UnbindParticipant(identity)
	c.send(s.teacherIdentity, domain.EventRosterUpdate, domain.RosterUpdate{Participants: s.rosterLocked()})

	// The departed participant may have been the last one missing an answer.
	if s.stage == domain.StageRunning && s.current != nil && s.allAnsweredLocked() {
		c.closeQuestionLocked(s, TriggerAllAnswered)
	}
	return true
}

func (c *Controller) broadcastLocked(s *Session, typ domain.EventType, payload any) {
	for _, id := range s.participantIDsLocked() {
		c.send(id, typ, payload)
	}
	c.send(s.teacherIdentity, typ, payload)
}

func (c *Controller) send(identity string, typ domain.EventType, payload any) {
	if identity == "" {
		return
	}
	c.notifier.Notify(identity, domain.Event{Type: typ, Payload: payload})
}

func (c *Controller) recoverSession(code, path string) {
	if r := recover(); r != nil {
		c.log.Error().Str("session_code", code).Str("path", path).Interface("panic", r).Msg("recovered session handler panic")
	}
}

func rankedPlayers(standings []ranking.Standing) []domain.RankedPlayer {
	out := make([]domain.RankedPlayer, 0, len(standings))
	for _, st := range standings {
		out = append(out, domain.RankedPlayer{Name: st.Name, Score: st.Score, Position: st.Position})
	}
	return out
}

// catalogError keeps classified errors (e.g. not found) and marks anything
// else as an upstream failure.
func catalogError(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Upstream(op, err)
}

type nopObserver struct{}

func (nopObserver) SessionsActive(int)     {}
func (nopObserver) QuestionClosed(string)  {}
func (nopObserver) AnswerSubmitted(bool)   {}
func (nopObserver) Persisted(error)        {}
