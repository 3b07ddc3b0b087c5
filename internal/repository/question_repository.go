package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/elearning-api/internal/models"
)

// QuestionRepository reads questions together with their answers.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new question repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// GetQuestionsForAnswers returns every question that is the parent of at least one of the given
// answers. Each question carries all of its answers, not only the requested ones.
func (r *QuestionRepository) GetQuestionsForAnswers(ctx context.Context, answerIDs []string) ([]models.Question, error) {
	if len(answerIDs) == 0 {
		return []models.Question{}, nil
	}
	const questionsQuery = `SELECT q.id, q.lesson_id, q.teacher_id, q.text, q.type, q.score, q.created_at, q.updated_at
        FROM questions q
        WHERE q.id IN (SELECT a.question_id FROM answers a WHERE a.id = ANY($1))
        ORDER BY q.created_at, q.id`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, questionsQuery, pq.Array(answerIDs)); err != nil {
		return nil, fmt.Errorf("get questions for answers: %w", err)
	}
	if len(questions) == 0 {
		return questions, nil
	}

	questionIDs := make([]string, len(questions))
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
		index[q.ID] = i
	}

	const answersQuery = `SELECT id, question_id, text, is_correct, created_at, updated_at
        FROM answers WHERE question_id = ANY($1) ORDER BY question_id, id`
	rows, err := r.db.QueryxContext(ctx, answersQuery, pq.Array(questionIDs))
	if err != nil {
		return nil, fmt.Errorf("load question answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var answer models.Answer
		if err := rows.StructScan(&answer); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if i, ok := index[answer.QuestionID]; ok {
			questions[i].Answers = append(questions[i].Answers, answer)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return questions, nil
}
