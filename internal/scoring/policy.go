// Package scoring implements the per-question scoring rules used when grading a submission.
//
// Every policy is a pure function of a question (with all of its answers loaded) and the
// answers a student selected for it. Results are always between zero and the question's points.
package scoring

import (
	"errors"
	"fmt"

	"github.com/noah-isme/elearning-api/internal/models"
)

// ErrUnknownQuestionType is returned for a type outside the closed set of scoring rules.
var ErrUnknownQuestionType = errors.New("unknown question type")

// Policy computes the points awarded for a question given the selected answers of that question.
type Policy func(q models.Question, selected []models.Answer) int

// PolicyFor returns the scoring rule for a question type.
func PolicyFor(t models.QuestionType) (Policy, error) {
	switch t {
	case models.QuestionTypeBoolean, models.QuestionTypeOne:
		return anyCorrect, nil
	case models.QuestionTypeMoreThanOne:
		return moreThanOneCorrect, nil
	case models.QuestionTypeMoreThanOneAll:
		return exactCorrectSet, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownQuestionType, int(t))
}

// anyCorrect awards full points when at least one selected answer is correct.
func anyCorrect(q models.Question, selected []models.Answer) int {
	if countCorrect(selected) >= 1 {
		return q.Points()
	}
	return 0
}

// moreThanOneCorrect awards full points when two or more selected answers are correct.
func moreThanOneCorrect(q models.Question, selected []models.Answer) int {
	if countCorrect(selected) > 1 {
		return q.Points()
	}
	return 0
}

// exactCorrectSet awards full points only when the selection is exactly the question's correct set.
// An incorrect extra invalidates the match.
func exactCorrectSet(q models.Question, selected []models.Answer) int {
	correct := make(map[string]struct{})
	for _, a := range q.Answers {
		if a.IsCorrect {
			correct[a.ID] = struct{}{}
		}
	}
	if len(correct) == 0 || len(selected) != len(correct) {
		return 0
	}
	for _, a := range selected {
		if _, ok := correct[a.ID]; !ok || !a.IsCorrect {
			return 0
		}
	}
	return q.Points()
}

func countCorrect(selected []models.Answer) int {
	n := 0
	for _, a := range selected {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
