package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/elearning-api/internal/models"
)

// AnswerRepository reads answers.
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new answer repository.
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// GetAnswersByIDs returns the answers whose id is in ids. Unknown ids are simply absent from the result.
func (r *AnswerRepository) GetAnswersByIDs(ctx context.Context, ids []string) ([]models.Answer, error) {
	if len(ids) == 0 {
		return []models.Answer{}, nil
	}
	const query = `SELECT id, question_id, text, is_correct, created_at, updated_at
        FROM answers WHERE id = ANY($1) ORDER BY question_id, id`
	var answers []models.Answer
	if err := r.db.SelectContext(ctx, &answers, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get answers by ids: %w", err)
	}
	return answers, nil
}
