package domain

import "time"

// Stage is the top-level state of a live session.
type Stage string

const (
	StageWaiting  Stage = "waiting"
	StageRunning  Stage = "running"
	StageFinished Stage = "finished"
)

// Topic is the catalog entry a session is created from.
type Topic struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	SecondsPerQuestion int    `json:"secondsPerQuestion"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      int64    `json:"id"`
	TopicID int64    `json:"topicId"`
	Text    string   `json:"text"`
	Order   int      `json:"order"`
	Options []Option `json:"options"`
}

// CorrectOptionID returns the first option flagged correct.
func (q Question) CorrectOptionID() (int64, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID, true
		}
	}
	return 0, false
}

// HasOption reports whether id is one of the question's options.
func (q Question) HasOption(id int64) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// AnswerRecord is one participant's outcome for one served question.
// Nil fields mean the participant did not answer before the question closed.
type AnswerRecord struct {
	QuestionID       int64      `json:"questionId"`
	SelectedOptionID *int64     `json:"selectedOptionId"`
	IsCorrect        bool       `json:"isCorrect"`
	AnsweredAt       *time.Time `json:"answeredAt"`
	ResponseTimeMs   *int64     `json:"responseTimeMs"`
}

// Participant is a joined student and their accumulated result.
type Participant struct {
	Identity     string         `json:"identity"`
	DisplayName  string         `json:"displayName"`
	Score        int            `json:"score"`
	CorrectCount int            `json:"correctCount"`
	WrongCount   int            `json:"wrongCount"`
	JoinedAt     time.Time      `json:"joinedAt"`
	Answers      []AnswerRecord `json:"answers"`
}

// AnsweredQuestion is an entry of the append-only log of served questions.
type AnsweredQuestion struct {
	QuestionID      int64 `json:"questionId"`
	CorrectOptionID int64 `json:"correctOptionId"`
}

// SessionSnapshot is the read-only view of a finished session handed to storage.
type SessionSnapshot struct {
	Code               string             `json:"code"`
	TopicID            int64              `json:"topicId"`
	TeacherIdentity    string             `json:"teacherIdentity"`
	StartedAt          time.Time          `json:"startedAt"`
	FinishedAt         time.Time          `json:"finishedAt"`
	SecondsPerQuestion int                `json:"secondsPerQuestion"`
	AnsweredQuestions  []AnsweredQuestion `json:"answeredQuestions"`
	Participants       []Participant      `json:"participants"`
}

// TotalQuestions is the number of questions actually served.
func (s SessionSnapshot) TotalQuestions() int {
	return len(s.AnsweredQuestions)
}
