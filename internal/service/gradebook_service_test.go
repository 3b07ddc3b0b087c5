package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/elearning-api/internal/models"
	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
)

type mockGradebookRepo struct {
	entry      *models.LessonStudent
	answerIDs  []string
	results    []models.LessonResult
	entryErr   error
	resultsErr error
	entryCalls int
}

func (m *mockGradebookRepo) GetLessonStudent(ctx context.Context, lessonID, studentID string) (*models.LessonStudent, error) {
	m.entryCalls++
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	return m.entry, nil
}

func (m *mockGradebookRepo) ListAnswerIDs(ctx context.Context, lessonID, studentID string) ([]string, error) {
	return m.answerIDs, nil
}

func (m *mockGradebookRepo) ListLessonResults(ctx context.Context, lessonID string) ([]models.LessonResult, error) {
	if m.resultsErr != nil {
		return nil, m.resultsErr
	}
	return m.results, nil
}

type mapCache struct {
	values map[string]models.StudentLessonResult
}

func (m *mapCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	*(dest.(*models.StudentLessonResult)) = v
	return true, nil
}

func (m *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = *(value.(*models.StudentLessonResult))
	return nil
}

func teacherClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleTeacher}
}

func sampleResults() []models.LessonResult {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return []models.LessonResult{
		{StudentID: "s1", Username: "ana", FullName: "Ana", Score: 7, Approved: true, SubmittedAt: at},
		{StudentID: "s2", Username: "ben", FullName: "Ben", Score: 3, Approved: false, SubmittedAt: at},
	}
}

func TestOwnResultReadsThroughCache(t *testing.T) {
	repo := &mockGradebookRepo{
		entry:     &models.LessonStudent{LessonID: lessonID, StudentID: studentID, Score: 7, Approved: true, CreatedAt: time.Now()},
		answerIDs: []string{answerATrue, answerB1, answerB2},
	}
	cache := &mapCache{values: map[string]models.StudentLessonResult{}}
	svc := NewGradebookService(newFixtureCatalog(intPtr(5)), repo, nil, cache, time.Minute, nil)

	first, err := svc.OwnResult(context.Background(), studentClaims(), courseID, lessonID)
	require.NoError(t, err)
	assert.Equal(t, 7, first.Score)
	assert.Equal(t, 5, *first.RequiredScore)
	assert.Len(t, first.AnswerIDs, 3)

	second, err := svc.OwnResult(context.Background(), studentClaims(), courseID, lessonID)
	require.NoError(t, err)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, 1, repo.entryCalls)
	assert.Contains(t, cache.values, LessonResultKey(lessonID, studentID))
}

func TestOwnResultErrors(t *testing.T) {
	repo := &mockGradebookRepo{entryErr: sql.ErrNoRows}
	svc := NewGradebookService(newFixtureCatalog(intPtr(5)), repo, nil, nil, 0, nil)

	_, err := svc.OwnResult(context.Background(), studentClaims(), courseID, lessonID)
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.OwnResult(context.Background(), teacherClaims(teacherID), courseID, lessonID)
	requireCode(t, err, appErrors.ErrForbidden)

	_, err = svc.OwnResult(context.Background(), nil, courseID, lessonID)
	requireCode(t, err, appErrors.ErrUnauthorized)

	repo.entryErr = errors.New("timeout")
	_, err = svc.OwnResult(context.Background(), studentClaims(), courseID, lessonID)
	requireCode(t, err, appErrors.ErrPersistence)
}

func TestGradebookMalformedPathIsNotFound(t *testing.T) {
	catalog := newFixtureCatalog(intPtr(5))
	catalog.lessonErr = errors.New("lookup must not run")
	repo := &mockGradebookRepo{results: sampleResults()}
	svc := NewGradebookService(catalog, repo, nil, nil, 0, nil)

	_, err := svc.OwnResult(context.Background(), studentClaims(), courseID, "not-a-uuid")
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.LessonResults(context.Background(), teacherClaims(teacherID), "course-1", lessonID)
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Export(context.Background(), teacherClaims(teacherID), courseID, "1", "csv", ExportMeta{})
	requireCode(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 0, repo.entryCalls)
}

func TestLessonResultsOwnership(t *testing.T) {
	repo := &mockGradebookRepo{results: sampleResults()}
	svc := NewGradebookService(newFixtureCatalog(intPtr(5)), repo, nil, nil, 0, nil)

	summary, err := svc.LessonResults(context.Background(), teacherClaims(teacherID), courseID, lessonID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Approved)
	assert.Equal(t, "Logic", summary.Title)

	_, err = svc.LessonResults(context.Background(), teacherClaims("someone-else"), courseID, lessonID)
	requireCode(t, err, appErrors.ErrForbidden)

	_, err = svc.LessonResults(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, courseID, lessonID)
	require.NoError(t, err)

	_, err = svc.LessonResults(context.Background(), studentClaims(), courseID, lessonID)
	requireCode(t, err, appErrors.ErrForbidden)
}

func TestExportLessonResults(t *testing.T) {
	audit := &mockAuditWriter{}
	repo := &mockGradebookRepo{results: sampleResults()}
	svc := NewGradebookService(newFixtureCatalog(intPtr(5)), repo, audit, nil, 0, nil)

	file, err := svc.Export(context.Background(), teacherClaims(teacherID), courseID, lessonID, "csv", ExportMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "lesson-"+lessonID+"-results.csv", file.Filename)
	assert.True(t, bytes.Contains(file.Body, []byte("Ana,ana,7,true")))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionResultsExported, audit.logs[0].Action)

	pdf, err := svc.Export(context.Background(), teacherClaims(teacherID), courseID, lessonID, "PDF", ExportMeta{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	_, err = svc.Export(context.Background(), teacherClaims(teacherID), courseID, lessonID, "xlsx", ExportMeta{})
	requireCode(t, err, appErrors.ErrValidation)
}
