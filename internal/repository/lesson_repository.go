package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/elearning-api/internal/models"
)

// LessonRepository reads lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// GetLesson returns a lesson by id. sql.ErrNoRows is returned unwrapped when it does not exist,
// including when id is not a valid uuid.
func (r *LessonRepository) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	const query = `SELECT id, course_id, teacher_id, title, description, opened, approval_score, previous_id, created_at, updated_at
        FROM lessons WHERE id = $1 LIMIT 1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidTextRepresentation(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &lesson, nil
}

// isInvalidTextRepresentation reports SQLSTATE 22P02, raised when a uuid column is compared with malformed text.
func isInvalidTextRepresentation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
