package memory

import "live-quiz-service/internal/domain"

// SampleCatalog seeds a StaticCatalog for running the server without a database.
func SampleCatalog() *StaticCatalog {
	topics := []domain.Topic{
		{ID: 1, Title: "Arithmetic", Description: "Warm-up sums", SecondsPerQuestion: 20},
		{ID: 2, Title: "Capitals", Description: "European capitals", SecondsPerQuestion: 15},
	}
	questions := []domain.Question{
		question(101, 1, 1, "What is 2 + 2?", "3", "4", "5"),
		question(102, 1, 2, "What is 7 x 6?", "42", "36", "48"),
		question(103, 1, 3, "What is 15 - 9?", "6", "5", "7"),
		question(201, 2, 1, "Capital of France?", "Paris", "Lyon", "Nice"),
		question(202, 2, 2, "Capital of Portugal?", "Lisbon", "Porto", "Faro"),
	}
	return NewStaticCatalog(topics, questions)
}

// question lists the correct option first, or last for even IDs.
func question(id, topicID int64, order int, text string, correct string, wrong ...string) domain.Question {
	q := domain.Question{ID: id, TopicID: topicID, Text: text, Order: order}
	optID := id * 10
	texts := append([]string{correct}, wrong...)
	if id%2 == 0 && len(texts) > 1 {
		texts = append(texts[1:], texts[0])
	}
	for _, t := range texts {
		optID++
		q.Options = append(q.Options, domain.Option{ID: optID, Text: t, Correct: t == correct})
	}
	return q
}
