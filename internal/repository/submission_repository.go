package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/elearning-api/internal/models"
)

// ErrSerialization reports that a submission transaction was aborted by a serialization failure or
// deadlock and may be retried by the caller.
var ErrSerialization = errors.New("submission transaction could not be serialized")

// QueryObserver receives the duration of instrumented queries.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SubmissionRepository persists answer selections and grade book entries.
type SubmissionRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// WithObserver attaches a query timing observer.
func (r *SubmissionRepository) WithObserver(observer QueryObserver) *SubmissionRepository {
	r.observer = observer
	return r
}

// ReplaceSubmission swaps the stored selection and grade book entry of (lesson, student) for sub
// inside one transaction. Concurrent calls for the same pair queue on an advisory lock taken before
// any row is touched. Under read committed every statement after the lock sees the rows committed
// by the previous holder.
func (r *SubmissionRepository) ReplaceSubmission(ctx context.Context, sub models.Submission) (*models.LessonStudent, error) {
	start := time.Now()
	defer r.observe("replace_submission", start)

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, classifyTxError("begin submission tx", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sub.LessonID+":"+sub.StudentID); err != nil {
		return nil, classifyTxError("lock submission", err)
	}

	now := time.Now().UTC()
	if err := replaceAnswerStudents(ctx, tx, sub, now); err != nil {
		return nil, err
	}
	entry, err := replaceLessonStudentScore(ctx, tx, sub, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyTxError("commit submission", err)
	}
	return entry, nil
}

func replaceAnswerStudents(ctx context.Context, tx *sqlx.Tx, sub models.Submission, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM answer_students WHERE lesson_id = $1 AND student_id = $2`, sub.LessonID, sub.StudentID); err != nil {
		return classifyTxError("delete answer students", err)
	}
	if len(sub.AnswerIDs) == 0 {
		return nil
	}

	rows := make([]models.AnswerStudent, len(sub.AnswerIDs))
	for i, answerID := range sub.AnswerIDs {
		rows[i] = models.AnswerStudent{
			ID:        uuid.NewString(),
			AnswerID:  answerID,
			StudentID: sub.StudentID,
			LessonID:  sub.LessonID,
			CreatedAt: now,
		}
	}
	const insert = `INSERT INTO answer_students (id, answer_id, student_id, lesson_id, created_at) VALUES (:id, :answer_id, :student_id, :lesson_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, rows); err != nil {
		return classifyTxError("insert answer students", err)
	}
	return nil
}

func replaceLessonStudentScore(ctx context.Context, tx *sqlx.Tx, sub models.Submission, now time.Time) (*models.LessonStudent, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lesson_students WHERE lesson_id = $1 AND student_id = $2`, sub.LessonID, sub.StudentID); err != nil {
		return nil, classifyTxError("delete lesson student", err)
	}

	entry := &models.LessonStudent{
		ID:        uuid.NewString(),
		LessonID:  sub.LessonID,
		StudentID: sub.StudentID,
		Score:     sub.Score,
		Approved:  sub.Approved,
		CreatedAt: now,
	}
	const insert = `INSERT INTO lesson_students (id, lesson_id, student_id, score, approved, created_at) VALUES (:id, :lesson_id, :student_id, :score, :approved, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, entry); err != nil {
		return nil, classifyTxError("insert lesson student", err)
	}
	return entry, nil
}

// GetLessonStudent returns the grade book entry for (lesson, student) or sql.ErrNoRows.
func (r *SubmissionRepository) GetLessonStudent(ctx context.Context, lessonID, studentID string) (*models.LessonStudent, error) {
	const query = `SELECT id, lesson_id, student_id, score, approved, created_at FROM lesson_students WHERE lesson_id = $1 AND student_id = $2 LIMIT 1`
	var entry models.LessonStudent
	if err := r.db.GetContext(ctx, &entry, query, lessonID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get lesson student: %w", err)
	}
	return &entry, nil
}

// ListAnswerIDs returns the answers currently selected by the student for the lesson.
func (r *SubmissionRepository) ListAnswerIDs(ctx context.Context, lessonID, studentID string) ([]string, error) {
	const query = `SELECT answer_id FROM answer_students WHERE lesson_id = $1 AND student_id = $2 ORDER BY answer_id`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, lessonID, studentID); err != nil {
		return nil, fmt.Errorf("list answer ids: %w", err)
	}
	return ids, nil
}

// ListLessonResults returns every grade book entry of the lesson with the student's identity.
func (r *SubmissionRepository) ListLessonResults(ctx context.Context, lessonID string) ([]models.LessonResult, error) {
	start := time.Now()
	defer r.observe("list_lesson_results", start)

	const query = `SELECT ls.student_id, u.username, u.full_name, ls.score, ls.approved, ls.created_at
        FROM lesson_students ls
        JOIN users u ON u.id = ls.student_id
        WHERE ls.lesson_id = $1
        ORDER BY u.full_name, u.username`
	results := []models.LessonResult{}
	if err := r.db.SelectContext(ctx, &results, query, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson results: %w", err)
	}
	return results, nil
}

func (r *SubmissionRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// classifyTxError maps serialization failures and deadlocks onto ErrSerialization.
func classifyTxError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%s: %w: %w", op, ErrSerialization, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
