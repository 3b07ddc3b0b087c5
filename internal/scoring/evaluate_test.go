package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/elearning-api/internal/models"
)

func exampleLesson() []models.Question {
	return []models.Question{
		question("qa", models.QuestionTypeBoolean, 3,
			models.Answer{ID: "A1", IsCorrect: true},
			models.Answer{ID: "A2"},
		),
		question("qb", models.QuestionTypeMoreThanOneAll, 4,
			models.Answer{ID: "B1", IsCorrect: true},
			models.Answer{ID: "B2", IsCorrect: true},
			models.Answer{ID: "B3"},
		),
	}
}

func selectAcross(questions []models.Question, ids ...string) []models.Answer {
	var out []models.Answer
	for _, q := range questions {
		out = append(out, pick(q, ids...)...)
	}
	return out
}

func TestEvaluateExampleLesson(t *testing.T) {
	questions := exampleLesson()

	eval, err := Evaluate(questions, selectAcross(questions, "A1", "B1", "B2"))
	require.NoError(t, err)
	assert.Equal(t, 7, eval.Total)
	assert.Equal(t, 7, eval.Possible)
	require.Len(t, eval.Questions, 2)
	assert.Equal(t, 3, eval.Questions[0].Awarded)
	assert.Equal(t, 4, eval.Questions[1].Awarded)

	eval, err = Evaluate(questions, selectAcross(questions, "A1", "B1"))
	require.NoError(t, err)
	assert.Equal(t, 3, eval.Total)
	assert.Equal(t, 0, eval.Questions[1].Awarded)
}

func TestEvaluateScoresEachQuestionOnce(t *testing.T) {
	questions := exampleLesson()
	doubled := append(append([]models.Question{}, questions...), questions[0])

	eval, err := Evaluate(doubled, selectAcross(questions, "A1"))
	require.NoError(t, err)
	assert.Equal(t, 3, eval.Total)
	assert.Len(t, eval.Questions, 2)
}

func TestEvaluateTotalNeverExceedsPossible(t *testing.T) {
	questions := exampleLesson()
	all := selectAcross(questions, "A1", "A2", "B1", "B2", "B3")

	eval, err := Evaluate(questions, all)
	require.NoError(t, err)
	assert.LessOrEqual(t, eval.Total, eval.Possible)
	assert.Equal(t, 3, eval.Total)
}

func TestEvaluatePropagatesUnknownType(t *testing.T) {
	_, err := Evaluate([]models.Question{{ID: "q", Type: 42}}, nil)
	require.ErrorIs(t, err, ErrUnknownQuestionType)
}
