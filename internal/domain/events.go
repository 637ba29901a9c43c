package domain

// EventType names an outbound message on the client channel.
type EventType string

const (
	EventSessionCreated EventType = "session-created"
	EventSessionState   EventType = "session-state"
	EventRosterUpdate   EventType = "roster-update"
	EventJoined         EventType = "joined"
	EventLeft           EventType = "left"
	EventSessionStarted EventType = "session-started"
	EventQuestionOpened EventType = "question-opened"
	EventAnswerAck      EventType = "answer-ack"
	EventAnswerCount    EventType = "answer-count"
	EventQuestionClosed EventType = "question-closed"
	EventAnswerResult   EventType = "answer-result"
	EventRanking        EventType = "ranking"
	EventQuizFinished   EventType = "quiz-finished"
	EventSessionEnded   EventType = "session-ended"
	EventTimerExpired   EventType = "timer-expired"
	EventError          EventType = "error"
)

// Event is a typed outbound message addressed to one connection.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type SessionCreated struct {
	Code          string `json:"code"`
	TeacherToken  string `json:"teacherToken"`
	Topic         Topic  `json:"topic"`
	QuestionCount int    `json:"questionCount"`
}

type RosterEntry struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type SessionState struct {
	Code               string        `json:"code"`
	Stage              Stage         `json:"stage"`
	Participants       []RosterEntry `json:"participants"`
	CurrentQuestionID  *int64        `json:"currentQuestionId"`
	QuestionsRemaining int           `json:"questionsRemaining"`
	SecondsRemaining   int           `json:"secondsRemaining"`
}

type RosterUpdate struct {
	Participants []RosterEntry `json:"participants"`
}

type Joined struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Left struct{}

type SessionStarted struct {
	Code string `json:"code"`
}

// OptionView is an option as shown to players, without the correctness flag.
type OptionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type QuestionOpened struct {
	ID               int64        `json:"id"`
	Text             string       `json:"text"`
	Options          []OptionView `json:"options"`
	TimeLimitSeconds int          `json:"timeLimitSeconds"`
}

type AnswerAck struct{}

type AnswerCount struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

type QuestionClosed struct {
	QuestionID int64 `json:"questionId"`
}

type AnswerResult struct {
	Correct         bool   `json:"correct"`
	CorrectOptionID int64  `json:"correctOptionId"`
	YourAnswer      *int64 `json:"yourAnswer"`
	ScoreDelta      int    `json:"scoreDelta"`
	ScoreTotal      int    `json:"scoreTotal"`
}

type RankedPlayer struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}

type Ranking struct {
	Players []RankedPlayer `json:"players"`
}

type Winner struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type QuizFinished struct {
	Winners    []Winner       `json:"winners"`
	Scoreboard []RankedPlayer `json:"scoreboard"`
}

type SessionEnded struct {
	Reason string `json:"reason"`
}

type TimerExpired struct {
	QuestionID int64  `json:"questionId"`
	Message    string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}
