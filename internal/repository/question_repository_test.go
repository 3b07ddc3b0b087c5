package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/elearning-api/internal/models"
)

func TestGetAnswersByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnswerRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM answers WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "question_id", "text", "is_correct", "created_at", "updated_at"}).
			AddRow("a1", "q1", "True", true, now, now))

	answers, err := repo.GetAnswersByIDs(context.Background(), []string{"a1", "missing"})
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.True(t, answers[0].IsCorrect)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAnswersByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnswerRepository(db)

	answers, err := repo.GetAnswersByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, answers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQuestionsForAnswersLoadsEveryAnswer(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM questions q")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lesson_id", "teacher_id", "text", "type", "score", "created_at", "updated_at"}).
			AddRow("q1", "lesson-1", "teacher-1", "Is water wet?", 1, 3, now, now).
			AddRow("q2", "lesson-1", "teacher-1", "Pick primes", 4, 4, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM answers WHERE question_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "question_id", "text", "is_correct", "created_at", "updated_at"}).
			AddRow("a1", "q1", "Yes", true, now, now).
			AddRow("a2", "q1", "No", false, now, now).
			AddRow("b1", "q2", "2", true, now, now).
			AddRow("b2", "q2", "3", true, now, now).
			AddRow("b3", "q2", "4", false, now, now))

	questions, err := repo.GetQuestionsForAnswers(context.Background(), []string{"a1", "b1"})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, models.QuestionTypeBoolean, questions[0].Type)
	assert.Len(t, questions[0].Answers, 2)
	assert.Equal(t, models.QuestionTypeMoreThanOneAll, questions[1].Type)
	assert.Len(t, questions[1].Answers, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}
