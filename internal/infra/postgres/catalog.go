package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// Catalog loads topics, questions and options from Postgres.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) LoadTopic(ctx context.Context, topicID int64) (domain.Topic, error) {
	t := domain.Topic{ID: topicID}
	err := c.pool.QueryRow(ctx,
		`SELECT title, COALESCE(description, ''), question_timer FROM topics WHERE id=$1`, topicID,
	).Scan(&t.Title, &t.Description, &t.SecondsPerQuestion)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("load topic: %w", err)
	}
	return t, nil
}

func (c *Catalog) LoadQuestionIDs(ctx context.Context, topicID int64) ([]int64, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id FROM questions WHERE topic_id=$1 ORDER BY order_index, id`, topicID)
	if err != nil {
		return nil, fmt.Errorf("load question ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load question ids: %w", err)
	}
	return ids, nil
}

func (c *Catalog) LoadQuestion(ctx context.Context, questionID int64) (domain.Question, error) {
	q := domain.Question{ID: questionID}
	err := c.pool.QueryRow(ctx,
		`SELECT topic_id, text, order_index FROM questions WHERE id=$1`, questionID,
	).Scan(&q.TopicID, &q.Text, &q.Order)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}

	rows, err := c.pool.Query(ctx,
		`SELECT id, text, is_correct FROM answer_options WHERE question_id=$1 ORDER BY id`, questionID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var opt domain.Option
		if err := rows.Scan(&opt.ID, &opt.Text, &opt.Correct); err != nil {
			return domain.Question{}, fmt.Errorf("scan option: %w", err)
		}
		q.Options = append(q.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return domain.Question{}, fmt.Errorf("load options: %w", err)
	}
	return q, nil
}
