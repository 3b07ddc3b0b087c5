package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QuestionType selects the scoring rule applied to a question.
type QuestionType int

const (
	QuestionTypeBoolean        QuestionType = 1
	QuestionTypeOne            QuestionType = 2
	QuestionTypeMoreThanOne    QuestionType = 3
	QuestionTypeMoreThanOneAll QuestionType = 4
)

var questionTypeNames = map[QuestionType]string{
	QuestionTypeBoolean:        "boolean",
	QuestionTypeOne:            "one",
	QuestionTypeMoreThanOne:    "more_than_one",
	QuestionTypeMoreThanOneAll: "more_than_one_all",
}

// String returns the lowercase wire name of the type.
func (t QuestionType) String() string {
	if name, ok := questionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("question_type(%d)", int(t))
}

// MarshalJSON encodes the type by name.
func (t QuestionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the wire name or the numeric code.
func (t *QuestionType) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*t = QuestionType(code)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("question type: %w", err)
	}
	parsed, err := ParseQuestionType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseQuestionType resolves a wire name such as "more_than_one_all".
func ParseQuestionType(name string) (QuestionType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range questionTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown question type %q", name)
}

// Question belongs to exactly one lesson and owns its answers.
type Question struct {
	ID        string       `db:"id" json:"id"`
	LessonID  string       `db:"lesson_id" json:"lesson_id"`
	TeacherID string       `db:"teacher_id" json:"teacher_id"`
	Text      string       `db:"text" json:"text"`
	Type      QuestionType `db:"type" json:"type"`
	Score     *int         `db:"score" json:"score,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
	Answers   []Answer     `db:"-" json:"answers,omitempty"`
}

// Points returns the value awarded for a correct response. A missing score counts as zero.
func (q *Question) Points() int {
	if q.Score == nil || *q.Score < 0 {
		return 0
	}
	return *q.Score
}

// Answer is a selectable option of a question.
type Answer struct {
	ID         string    `db:"id" json:"id"`
	QuestionID string    `db:"question_id" json:"question_id"`
	Text       string    `db:"text" json:"text"`
	IsCorrect  bool      `db:"is_correct" json:"is_correct"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
