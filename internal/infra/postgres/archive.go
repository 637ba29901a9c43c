package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// Archive writes finished sessions into the live_session tables in one transaction.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

func (a *Archive) PersistFinishedSession(ctx context.Context, snap domain.SessionSnapshot) (int64, error) {
	var sessionID int64
	err := a.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO live_session
				(code, topic_id, teacher_identity, status, started_at, finished_at, time_per_question, total_questions)
			VALUES ($1, $2, $3, 'finished', $4, $5, $6, $7)
			RETURNING id`,
			snap.Code, snap.TopicID, snap.TeacherIdentity, snap.StartedAt, snap.FinishedAt,
			snap.SecondsPerQuestion, snap.TotalQuestions(),
		).Scan(&sessionID)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		// Questions were shuffled per session; the row order keeps the served order.
		questionRows := make(map[int64]int64, len(snap.AnsweredQuestions))
		for i, aq := range snap.AnsweredQuestions {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO live_session_question (session_id, question_id, correct_option_id, "order")
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				sessionID, aq.QuestionID, aq.CorrectOptionID, i+1,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert session question %d: %w", aq.QuestionID, err)
			}
			questionRows[aq.QuestionID] = id
		}

		batch := &pgx.Batch{}
		for _, p := range snap.Participants {
			var participantID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO live_session_participant
					(session_id, student_name, socket_id, joined_at, score, correct_answers, wrong_answers)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id`,
				sessionID, p.DisplayName, p.Identity, p.JoinedAt, p.Score, p.CorrectCount, p.WrongCount,
			).Scan(&participantID)
			if err != nil {
				return fmt.Errorf("insert participant: %w", err)
			}

			for _, ans := range p.Answers {
				sq, ok := questionRows[ans.QuestionID]
				if !ok {
					continue
				}
				batch.Queue(`
					INSERT INTO live_session_answer
						(session_id, participant_id, session_question_id, selected_option_id, is_correct, answered_at, response_time_ms)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					sessionID, participantID, sq, ans.SelectedOptionID, ans.IsCorrect, ans.AnsweredAt, ans.ResponseTimeMs,
				)
			}
		}

		if batch.Len() == 0 {
			return nil
		}
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("insert answer: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return sessionID, nil
}
