package models

import "time"

// Course groups lessons authored by a teacher.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Opened      bool      `db:"opened" json:"opened"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	PreviousID  *string   `db:"previous_id" json:"previous_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Lesson is a gradable unit within a course.
type Lesson struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	Title         string    `db:"title" json:"title"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Opened        bool      `db:"opened" json:"opened"`
	ApprovalScore *int      `db:"approval_score" json:"approval_score,omitempty"`
	PreviousID    *string   `db:"previous_id" json:"previous_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Approves reports whether score passes the lesson threshold. A lesson without a threshold approves any score.
func (l *Lesson) Approves(score int) bool {
	if l.ApprovalScore == nil {
		return true
	}
	return score >= *l.ApprovalScore
}
