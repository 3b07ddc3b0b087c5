package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/elearning-api/internal/models"
)

func intPtr(v int) *int { return &v }

func question(id string, typ models.QuestionType, score int, answers ...models.Answer) models.Question {
	for i := range answers {
		answers[i].QuestionID = id
	}
	return models.Question{ID: id, Type: typ, Score: intPtr(score), Answers: answers}
}

func pick(q models.Question, ids ...string) []models.Answer {
	var out []models.Answer
	for _, id := range ids {
		for _, a := range q.Answers {
			if a.ID == id {
				out = append(out, a)
			}
		}
	}
	return out
}

func TestAnyCorrectPolicies(t *testing.T) {
	for _, typ := range []models.QuestionType{models.QuestionTypeBoolean, models.QuestionTypeOne} {
		q := question("q1", typ, 3,
			models.Answer{ID: "a1", IsCorrect: true},
			models.Answer{ID: "a2"},
		)

		tests := []struct {
			name     string
			selected []string
			want     int
		}{
			{name: "correct answer", selected: []string{"a1"}, want: 3},
			{name: "correct plus incorrect", selected: []string{"a1", "a2"}, want: 3},
			{name: "only incorrect", selected: []string{"a2"}, want: 0},
			{name: "nothing selected", selected: nil, want: 0},
		}
		for _, tc := range tests {
			t.Run(typ.String()+"/"+tc.name, func(t *testing.T) {
				got, err := Score(q, pick(q, tc.selected...))
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			})
		}
	}
}

func TestMoreThanOnePolicy(t *testing.T) {
	q := question("q1", models.QuestionTypeMoreThanOne, 5,
		models.Answer{ID: "a1", IsCorrect: true},
		models.Answer{ID: "a2", IsCorrect: true},
		models.Answer{ID: "a3", IsCorrect: true},
		models.Answer{ID: "a4"},
	)

	tests := []struct {
		name     string
		selected []string
		want     int
	}{
		{name: "single correct", selected: []string{"a1"}, want: 0},
		{name: "single correct with incorrect", selected: []string{"a1", "a4"}, want: 0},
		{name: "two correct", selected: []string{"a1", "a2"}, want: 5},
		{name: "all correct", selected: []string{"a1", "a2", "a3"}, want: 5},
		{name: "duplicated single correct", selected: []string{"a1", "a1"}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Score(q, pick(q, tc.selected...))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMoreThanOneAllPolicy(t *testing.T) {
	q := question("q1", models.QuestionTypeMoreThanOneAll, 4,
		models.Answer{ID: "b1", IsCorrect: true},
		models.Answer{ID: "b2", IsCorrect: true},
		models.Answer{ID: "b3"},
	)

	tests := []struct {
		name     string
		selected []string
		want     int
	}{
		{name: "strict subset", selected: []string{"b1"}, want: 0},
		{name: "exact set", selected: []string{"b1", "b2"}, want: 4},
		{name: "exact set in other order", selected: []string{"b2", "b1"}, want: 4},
		{name: "full set plus incorrect", selected: []string{"b1", "b2", "b3"}, want: 0},
		{name: "only incorrect", selected: []string{"b3"}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Score(q, pick(q, tc.selected...))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMoreThanOneAllWithoutCorrectAnswersNeverScores(t *testing.T) {
	q := question("q1", models.QuestionTypeMoreThanOneAll, 4, models.Answer{ID: "x"})
	got, err := Score(q, pick(q, "x"))
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestScoreIgnoresAnswersOfOtherQuestions(t *testing.T) {
	q := question("q1", models.QuestionTypeBoolean, 2, models.Answer{ID: "a1"})
	foreign := models.Answer{ID: "z1", QuestionID: "q2", IsCorrect: true}

	got, err := Score(q, []models.Answer{foreign})
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestNilScoreCountsAsZero(t *testing.T) {
	q := models.Question{ID: "q1", Type: models.QuestionTypeBoolean, Answers: []models.Answer{{ID: "a1", QuestionID: "q1", IsCorrect: true}}}
	got, err := Score(q, q.Answers)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestUnknownQuestionType(t *testing.T) {
	_, err := PolicyFor(models.QuestionType(9))
	require.ErrorIs(t, err, ErrUnknownQuestionType)

	_, err = Score(models.Question{ID: "q", Type: 0}, nil)
	require.ErrorIs(t, err, ErrUnknownQuestionType)
}
