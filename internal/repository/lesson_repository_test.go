package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLesson(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "teacher_id", "title", "description", "opened", "approval_score", "previous_id", "created_at", "updated_at"}).
		AddRow("lesson-1", "course-1", "teacher-1", "Fractions", nil, true, 5, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, teacher_id, title")).
		WithArgs("lesson-1").
		WillReturnRows(rows)

	lesson, err := repo.GetLesson(context.Background(), "lesson-1")
	require.NoError(t, err)
	require.NotNil(t, lesson.ApprovalScore)
	assert.Equal(t, 5, *lesson.ApprovalScore)
	assert.Nil(t, lesson.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLessonNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("FROM lessons").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLesson(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLessonMalformedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("FROM lessons").WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"})

	_, err := repo.GetLesson(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
