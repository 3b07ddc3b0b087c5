package scoring

import (
	"github.com/noah-isme/elearning-api/internal/models"
)

// Evaluation is the aggregate outcome of scoring a submission.
type Evaluation struct {
	Total     int
	Possible  int
	Questions []models.QuestionOutcome
}

// Score applies the question's policy to the selected answers belonging to it.
// Answers of other questions and repeated answer ids are ignored.
func Score(q models.Question, selected []models.Answer) (int, error) {
	policy, err := PolicyFor(q.Type)
	if err != nil {
		return 0, err
	}
	return policy(q, ownAnswers(q, selected)), nil
}

// Evaluate scores each question exactly once against the selected answers and sums the result.
// Questions are reported in the order given.
func Evaluate(questions []models.Question, selected []models.Answer) (Evaluation, error) {
	eval := Evaluation{Questions: make([]models.QuestionOutcome, 0, len(questions))}
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}

		awarded, err := Score(q, selected)
		if err != nil {
			return Evaluation{}, err
		}
		eval.Total += awarded
		eval.Possible += q.Points()
		eval.Questions = append(eval.Questions, models.QuestionOutcome{
			QuestionID: q.ID,
			Type:       q.Type,
			Awarded:    awarded,
			Possible:   q.Points(),
		})
	}
	return eval, nil
}

func ownAnswers(q models.Question, selected []models.Answer) []models.Answer {
	own := make([]models.Answer, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	for _, a := range selected {
		if a.QuestionID != q.ID {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		own = append(own, a)
	}
	return own
}
