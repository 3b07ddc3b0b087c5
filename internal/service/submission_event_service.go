package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/elearning-api/internal/models"
	"github.com/noah-isme/elearning-api/pkg/events"
	"github.com/noah-isme/elearning-api/pkg/jobs"
)

// Job and event types emitted after a submission commits.
const (
	EventSubmissionScored    = "submission.scored"
	jobTypeSubmissionAudit   = "submission.audit"
	jobTypeSubmissionPublish = "submission.publish"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SubmissionEventService records scored submissions in the audit trail and forwards them to the broker.
// Each concern runs as its own job so a broker retry never duplicates the audit row.
type SubmissionEventService struct {
	audit     auditWriter
	publisher events.Publisher
	queue     jobEnqueuer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSubmissionEventService constructs the service. Call Bind before dispatching.
func NewSubmissionEventService(audit auditWriter, publisher events.Publisher, metrics *MetricsService, logger *zap.Logger) *SubmissionEventService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionEventService{audit: audit, publisher: publisher, metrics: metrics, logger: logger}
}

// Bind sets the queue used by Dispatch.
func (s *SubmissionEventService) Bind(queue jobEnqueuer) {
	s.queue = queue
}

// Dispatch enqueues the audit and publish jobs for event. Each job is enqueued independently, so
// a full queue for one does not drop the other.
func (s *SubmissionEventService) Dispatch(event models.SubmissionScoredEvent) error {
	if s.queue == nil {
		return fmt.Errorf("submission events: queue not bound")
	}
	var errs []error
	for _, jobType := range []string{jobTypeSubmissionAudit, jobTypeSubmissionPublish} {
		if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType, Payload: event}); err != nil {
			s.metrics.RecordEventDispatch(jobType, "dropped")
			s.logger.Warn("submission job dropped",
				zap.String("type", jobType),
				zap.String("lesson_id", event.LessonID),
				zap.String("student_id", event.StudentID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("enqueue %s: %w", jobType, err))
			continue
		}
		s.metrics.RecordEventDispatch(jobType, "enqueued")
	}
	return errors.Join(errs...)
}

// Handle is the jobs.Handler for submission jobs.
func (s *SubmissionEventService) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.SubmissionScoredEvent)
	if !ok {
		s.logger.Error("unexpected submission job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}

	switch job.Type {
	case jobTypeSubmissionAudit:
		if err := s.writeAudit(ctx, event); err != nil {
			s.metrics.RecordEventDispatch(job.Type, "failed")
			return err
		}
		s.metrics.RecordEventDispatch(job.Type, "done")
		return nil
	case jobTypeSubmissionPublish:
		if err := s.publisher.Publish(ctx, EventSubmissionScored, event); err != nil {
			s.metrics.RecordEventDispatch(job.Type, "failed")
			return err
		}
		s.metrics.RecordEventDispatch(job.Type, "done")
		return nil
	default:
		s.logger.Warn("unknown submission job type", zap.String("type", job.Type))
		return nil
	}
}

func (s *SubmissionEventService) writeAudit(ctx context.Context, event models.SubmissionScoredEvent) error {
	if s.audit == nil {
		return nil
	}
	values, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit values: %w", err)
	}
	studentID := event.StudentID
	lessonID := event.LessonID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &studentID,
		Action:     models.AuditActionSubmissionScored,
		Resource:   "lesson",
		ResourceID: &lessonID,
		NewValues:  values,
		IPAddress:  event.IPAddress,
		UserAgent:  event.UserAgent,
		CreatedAt:  event.ScoredAt,
	}); err != nil {
		return fmt.Errorf("write submission audit: %w", err)
	}
	return nil
}
