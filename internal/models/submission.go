package models

import "time"

// AnswerStudent records that a student selected an answer in their latest submission.
type AnswerStudent struct {
	ID        string    `db:"id" json:"id"`
	AnswerID  string    `db:"answer_id" json:"answer_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LessonStudent is the grade book entry holding the latest submission score.
type LessonStudent struct {
	ID        string    `db:"id" json:"id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Score     int       `db:"score" json:"score"`
	Approved  bool      `db:"approved" json:"approved"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Submission is the complete replacement state persisted for a (lesson, student) pair.
type Submission struct {
	LessonID  string
	StudentID string
	AnswerIDs []string
	Score     int
	Approved  bool
}

// SubmissionResult is returned to the student after scoring.
type SubmissionResult struct {
	LessonID      string `json:"lesson_id"`
	Approved      bool   `json:"approved"`
	Score         int    `json:"score"`
	MaxScore      int    `json:"max_score"`
	RequiredScore *int   `json:"required_score,omitempty"`
	Message       string `json:"-"`
}

// QuestionOutcome is the per-question contribution of a submission.
type QuestionOutcome struct {
	QuestionID string       `json:"question_id"`
	Type       QuestionType `json:"type"`
	Awarded    int          `json:"awarded"`
	Possible   int          `json:"possible"`
}

// SubmissionScoredEvent is dispatched after a submission commits.
type SubmissionScoredEvent struct {
	LessonID    string            `json:"lesson_id"`
	CourseID    string            `json:"course_id"`
	StudentID   string            `json:"student_id"`
	Score       int               `json:"score"`
	Approved    bool              `json:"approved"`
	AnswerCount int               `json:"answer_count"`
	Questions   []QuestionOutcome `json:"questions"`
	RequestID   string            `json:"request_id,omitempty"`
	IPAddress   string            `json:"-"`
	UserAgent   string            `json:"-"`
	ScoredAt    time.Time         `json:"scored_at"`
}

// LessonResult is a grade book row joined with the student's identity.
type LessonResult struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	Username    string    `db:"username" json:"username"`
	FullName    string    `db:"full_name" json:"full_name"`
	Score       int       `db:"score" json:"score"`
	Approved    bool      `db:"approved" json:"approved"`
	SubmittedAt time.Time `db:"created_at" json:"submitted_at"`
}

// StudentLessonResult is what a student sees for their own latest submission.
type StudentLessonResult struct {
	LessonID      string    `json:"lesson_id"`
	Score         int       `json:"score"`
	Approved      bool      `json:"approved"`
	RequiredScore *int      `json:"required_score,omitempty"`
	AnswerIDs     []string  `json:"answers"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// LessonResults is the grade book of one lesson as seen by its teacher.
type LessonResults struct {
	LessonID      string         `json:"lesson_id"`
	Title         string         `json:"title"`
	RequiredScore *int           `json:"required_score,omitempty"`
	Total         int            `json:"total"`
	Approved      int            `json:"approved"`
	Results       []LessonResult `json:"results"`
}
