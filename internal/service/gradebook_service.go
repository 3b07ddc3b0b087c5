package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/elearning-api/internal/authz"
	"github.com/noah-isme/elearning-api/internal/models"
	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
	"github.com/noah-isme/elearning-api/pkg/export"
)

type gradebookRepository interface {
	GetLessonStudent(ctx context.Context, lessonID, studentID string) (*models.LessonStudent, error)
	ListAnswerIDs(ctx context.Context, lessonID, studentID string) ([]string, error)
	ListLessonResults(ctx context.Context, lessonID string) ([]models.LessonResult, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type renderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportMeta carries request metadata recorded with an export.
type ExportMeta struct {
	IP        string
	UserAgent string
}

// ExportFile is a rendered grade book.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// GradebookService exposes grade book reads and exports.
type GradebookService struct {
	lessons   submissionLessonReader
	repo      gradebookRepository
	audit     auditWriter
	cache     resultCache
	cacheTTL  time.Duration
	renderers map[string]renderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradebookService constructs the service with CSV and PDF renderers.
func NewGradebookService(lessons submissionLessonReader, repo gradebookRepository, audit auditWriter, cache resultCache, cacheTTL time.Duration, logger *zap.Logger) *GradebookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := map[string]renderer{
		"csv": export.NewCSVExporter(),
		"pdf": export.NewPDFExporter(),
	}
	return &GradebookService{
		lessons:   lessons,
		repo:      repo,
		audit:     audit,
		cache:     cache,
		cacheTTL:  cacheTTL,
		renderers: renderers,
		validator: validator.New(),
		logger:    logger,
	}
}

// OwnResult returns the caller's latest submission for the lesson.
func (s *GradebookService) OwnResult(ctx context.Context, actor *models.JWTClaims, courseID, lessonID string) (*models.StudentLessonResult, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if !authz.Can(actor.Role, authz.ActionViewOwnResult) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students have lesson results")
	}
	lesson, err := s.lessonInCourse(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	key := LessonResultKey(lesson.ID, actor.UserID)
	if s.cache != nil {
		var cached models.StudentLessonResult
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	entry, err := s.repo.GetLessonStudent(ctx, lesson.ID, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no submission for this lesson yet")
		}
		return nil, s.persistenceError(err, "failed to load lesson result")
	}
	answerIDs, err := s.repo.ListAnswerIDs(ctx, lesson.ID, actor.UserID)
	if err != nil {
		return nil, s.persistenceError(err, "failed to load selected answers")
	}

	result := &models.StudentLessonResult{
		LessonID:      lesson.ID,
		Score:         entry.Score,
		Approved:      entry.Approved,
		RequiredScore: lesson.ApprovalScore,
		AnswerIDs:     answerIDs,
		SubmittedAt:   entry.CreatedAt,
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, result, s.cacheTTL)
	}
	return result, nil
}

// LessonResults lists every student's entry for a lesson the actor manages.
func (s *GradebookService) LessonResults(ctx context.Context, actor *models.JWTClaims, courseID, lessonID string) (*models.LessonResults, error) {
	lesson, err := s.managedLesson(ctx, actor, authz.ActionViewLessonResults, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, lesson)
}

func (s *GradebookService) summarize(ctx context.Context, lesson *models.Lesson) (*models.LessonResults, error) {
	rows, err := s.repo.ListLessonResults(ctx, lesson.ID)
	if err != nil {
		return nil, s.persistenceError(err, "failed to list lesson results")
	}

	summary := &models.LessonResults{
		LessonID:      lesson.ID,
		Title:         lesson.Title,
		RequiredScore: lesson.ApprovalScore,
		Total:         len(rows),
		Results:       rows,
	}
	for _, r := range rows {
		if r.Approved {
			summary.Approved++
		}
	}
	return summary, nil
}

// Export renders the lesson grade book as csv or pdf.
func (s *GradebookService) Export(ctx context.Context, actor *models.JWTClaims, courseID, lessonID, format string, meta ExportMeta) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "unsupported export format"),
			map[string]string{"format": "must be csv or pdf"},
		)
	}
	lesson, err := s.managedLesson(ctx, actor, authz.ActionExportLessonResults, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, lesson)
	if err != nil {
		return nil, err
	}

	body, err := r.Render(resultsDataset(summary))
	if err != nil {
		s.logger.Error("render lesson results failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.recordExport(ctx, actor, summary, format, meta)

	return &ExportFile{
		Filename:    fmt.Sprintf("lesson-%s-results.%s", summary.LessonID, r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func (s *GradebookService) recordExport(ctx context.Context, actor *models.JWTClaims, summary *models.LessonResults, format string, meta ExportMeta) {
	if s.audit == nil {
		return
	}
	values, _ := json.Marshal(map[string]interface{}{"format": format, "rows": summary.Total})
	userID := actor.UserID
	lessonID := summary.LessonID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionResultsExported,
		Resource:   "lesson",
		ResourceID: &lessonID,
		NewValues:  values,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}
}

func (s *GradebookService) managedLesson(ctx context.Context, actor *models.JWTClaims, action authz.Action, courseID, lessonID string) (*models.Lesson, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if !authz.Can(actor.Role, action) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view lesson results")
	}
	lesson, err := s.lessonInCourse(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageLesson(actor, lesson) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lesson belongs to another teacher")
	}
	return lesson, nil
}

func (s *GradebookService) lessonInCourse(ctx context.Context, courseID, lessonID string) (*models.Lesson, error) {
	courseID, lessonID, ok := lessonPath(s.validator, courseID, lessonID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	lesson, err := s.lessons.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, s.persistenceError(err, "failed to load lesson")
	}
	if lesson.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	return lesson, nil
}

func (s *GradebookService) persistenceError(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, message)
}

func resultsDataset(summary *models.LessonResults) export.Dataset {
	required := "none"
	if summary.RequiredScore != nil {
		required = strconv.Itoa(*summary.RequiredScore)
	}
	data := export.Dataset{
		Title: summary.Title,
		Summary: []string{
			"Required score: " + required,
			fmt.Sprintf("Approved: %d of %d", summary.Approved, summary.Total),
		},
		Headers: []string{"Student", "Username", "Score", "Approved", "Submitted At"},
		Rows:    make([][]string, 0, len(summary.Results)),
	}
	for _, r := range summary.Results {
		data.Rows = append(data.Rows, []string{
			r.FullName,
			r.Username,
			strconv.Itoa(r.Score),
			strconv.FormatBool(r.Approved),
			r.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	return data
}
