package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/elearning-api/internal/authz"
	"github.com/noah-isme/elearning-api/internal/models"
	"github.com/noah-isme/elearning-api/internal/repository"
	"github.com/noah-isme/elearning-api/internal/scoring"
	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
)

type submissionLessonReader interface {
	GetLesson(ctx context.Context, id string) (*models.Lesson, error)
}

type submissionAnswerReader interface {
	GetAnswersByIDs(ctx context.Context, ids []string) ([]models.Answer, error)
}

type submissionQuestionReader interface {
	GetQuestionsForAnswers(ctx context.Context, answerIDs []string) ([]models.Question, error)
}

type submissionStore interface {
	ReplaceSubmission(ctx context.Context, sub models.Submission) (*models.LessonStudent, error)
}

type resultCacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

type submissionEventDispatcher interface {
	Dispatch(event models.SubmissionScoredEvent) error
}

// SelectAnswersRequest is the body of a submission.
type SelectAnswersRequest struct {
	Answers   []string `json:"answers" validate:"required,min=1,dive,uuid"`
	RequestID string   `json:"-"`
	IP        string   `json:"-"`
	UserAgent string   `json:"-"`
}

// SubmissionService scores answer selections and records them in the grade book.
type SubmissionService struct {
	lessons   submissionLessonReader
	answers   submissionAnswerReader
	questions submissionQuestionReader
	store     submissionStore
	validator *validator.Validate
	logger    *zap.Logger

	metrics *MetricsService
	cache   resultCacheInvalidator
	events  submissionEventDispatcher
	now     func() time.Time
}

// NewSubmissionService constructs the submission workflow.
func NewSubmissionService(lessons submissionLessonReader, answers submissionAnswerReader, questions submissionQuestionReader, store submissionStore, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		lessons:   lessons,
		answers:   answers,
		questions: questions,
		store:     store,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// WithMetrics attaches Prometheus instrumentation.
func (s *SubmissionService) WithMetrics(metrics *MetricsService) *SubmissionService {
	s.metrics = metrics
	return s
}

// WithCache attaches the result cache that must be invalidated after each submission.
func (s *SubmissionService) WithCache(cache resultCacheInvalidator) *SubmissionService {
	s.cache = cache
	return s
}

// WithEvents attaches the post-commit event dispatcher.
func (s *SubmissionService) WithEvents(events submissionEventDispatcher) *SubmissionService {
	s.events = events
	return s
}

// SubmitAnswers replaces the actor's submission for the lesson, scores it and decides approval.
// Nothing is written unless every answer is known and belongs to the lesson.
func (s *SubmissionService) SubmitAnswers(ctx context.Context, actor *models.JWTClaims, courseID, lessonID string, req SelectAnswersRequest) (*models.SubmissionResult, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if !authz.Can(actor.Role, authz.ActionSubmitAnswers) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit answers")
	}
	courseID, lessonID, ok := lessonPath(s.validator, courseID, lessonID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	req.Answers = normalizeIDs(req.Answers)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordSubmission(OutcomeRejected, 0)
		return nil, validationError(err, "invalid answers payload")
	}

	answerIDs := uniqueIDs(req.Answers)

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

	selected, questions, err := s.resolveSelection(ctx, lesson, answerIDs)
	if err != nil {
		s.metrics.RecordSubmission(OutcomeRejected, 0)
		return nil, err
	}

	eval, err := scoring.Evaluate(questions, selected)
	if err != nil {
		s.logger.Error("scoring failed", zap.String("lesson_id", lesson.ID), zap.Error(err))
		s.metrics.RecordSubmission(OutcomeFailed, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lesson contains an unscorable question")
	}
	approved := lesson.Approves(eval.Total)

	entry, err := s.store.ReplaceSubmission(ctx, models.Submission{
		LessonID:  lesson.ID,
		StudentID: actor.UserID,
		AnswerIDs: answerIDs,
		Score:     eval.Total,
		Approved:  approved,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSerialization) {
			s.metrics.RecordSubmission(OutcomeConflict, 0)
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "another submission for this lesson is in progress, please retry")
		}
		s.metrics.RecordSubmission(OutcomeFailed, 0)
		return nil, s.persistenceError(err, "failed to save submission")
	}

	outcome := OutcomeNotApproved
	if approved {
		outcome = OutcomeApproved
	}
	s.metrics.RecordSubmission(outcome, eval.Total)
	s.afterCommit(ctx, lesson, actor, req, answerIDs, eval, entry)

	result := &models.SubmissionResult{
		LessonID: lesson.ID,
		Approved: approved,
		Score:    eval.Total,
		MaxScore: eval.Possible,
	}
	if approved {
		result.Message = fmt.Sprintf("Approved with a score of %d.", eval.Total)
	} else {
		result.RequiredScore = lesson.ApprovalScore
		result.Message = fmt.Sprintf("Not approved: your score was %d and the required score is %d.", eval.Total, *lesson.ApprovalScore)
	}
	return result, nil
}

// resolveSelection loads the selected answers and their questions, rejecting unknown ids
// and answers that belong to another lesson.
func (s *SubmissionService) resolveSelection(ctx context.Context, lesson *models.Lesson, answerIDs []string) ([]models.Answer, []models.Question, error) {
	selected, err := s.answers.GetAnswersByIDs(ctx, answerIDs)
	if err != nil {
		return nil, nil, s.persistenceError(err, "failed to load answers")
	}
	found := make(map[string]models.Answer, len(selected))
	for _, a := range selected {
		found[a.ID] = a
	}
	var missing []string
	for _, id := range answerIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "some answers do not exist"),
			map[string]string{"answers": "unknown answer ids: " + strings.Join(missing, ", ")},
		)
	}

	questions, err := s.questions.GetQuestionsForAnswers(ctx, answerIDs)
	if err != nil {
		return nil, nil, s.persistenceError(err, "failed to load questions")
	}
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	var foreign []string
	for _, a := range selected {
		q, ok := byID[a.QuestionID]
		if !ok || q.LessonID != lesson.ID {
			foreign = append(foreign, a.ID)
		}
	}
	if len(foreign) > 0 {
		sort.Strings(foreign)
		return nil, nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "some answers do not belong to this lesson"),
			map[string]string{"answers": "answers outside lesson: " + strings.Join(foreign, ", ")},
		)
	}
	return selected, questions, nil
}

// afterCommit runs best-effort follow-ups. The submission is already durable at this point.
func (s *SubmissionService) afterCommit(ctx context.Context, lesson *models.Lesson, actor *models.JWTClaims, req SelectAnswersRequest, answerIDs []string, eval scoring.Evaluation, entry *models.LessonStudent) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, LessonResultKey(lesson.ID, actor.UserID)); err != nil {
			s.logger.Warn("invalidate lesson result cache failed", zap.String("lesson_id", lesson.ID), zap.Error(err))
		}
	}
	if s.events == nil {
		return
	}
	scoredAt := entry.CreatedAt
	if scoredAt.IsZero() {
		scoredAt = s.now().UTC()
	}
	event := models.SubmissionScoredEvent{
		LessonID:    lesson.ID,
		CourseID:    lesson.CourseID,
		StudentID:   actor.UserID,
		Score:       entry.Score,
		Approved:    entry.Approved,
		AnswerCount: len(answerIDs),
		Questions:   eval.Questions,
		RequestID:   req.RequestID,
		IPAddress:   req.IP,
		UserAgent:   req.UserAgent,
		ScoredAt:    scoredAt,
	}
	if err := s.events.Dispatch(event); err != nil {
		s.logger.Warn("submission event not dispatched", zap.String("lesson_id", lesson.ID), zap.String("student_id", actor.UserID), zap.Error(err))
	}
}

func (s *SubmissionService) persistenceError(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, message)
}

// validationError converts validator failures into a VALIDATION_ERROR with one detail per field.
func validationError(err error, message string) error {
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	vErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	if len(details) > 0 {
		vErr.Details = details
	}
	return vErr
}

// normalizeIDs trims and lower-cases ids so that any spelling of a UUID validates and compares equal.
func normalizeIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = normalizeID(id)
	}
	return out
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// lessonPath normalizes the ids of a lesson route. ok is false when either id is not a UUID,
// since such an id can never name a stored row.
func lessonPath(v *validator.Validate, courseID, lessonID string) (string, string, bool) {
	courseID, lessonID = normalizeID(courseID), normalizeID(lessonID)
	if v.Var(courseID, "uuid") != nil || v.Var(lessonID, "uuid") != nil {
		return courseID, lessonID, false
	}
	return courseID, lessonID, true
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
