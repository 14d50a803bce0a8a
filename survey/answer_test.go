package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/conect-insights/model"
)

func TestCoerceAnswer(t *testing.T) {
	text := model.SurveyQuestion{ID: "t", Type: model.QuestionText}
	boolean := model.SurveyQuestion{ID: "b", Type: model.QuestionBoolean}
	rating := model.SurveyQuestion{ID: "r", Type: model.QuestionRating}

	tests := []struct {
		name string
		q    model.SurveyQuestion
		raw  any
		want model.Answer
	}{
		{"text", text, "faltou arroz", model.TextAnswer("faltou arroz")},
		{"nil clears", text, nil, model.Answer{}},
		{"boolean canonical", boolean, "Sim", model.BooleanAnswer("Sim")},
		{"boolean folded", boolean, " não ", model.BooleanAnswer("Não")},
		{"boolean from bool", boolean, false, model.BooleanAnswer("Não")},
		{"boolean blank clears", boolean, "", model.Answer{}},
		{"rating from JSON number", rating, float64(4), model.RatingAnswer(4)},
		{"rating from string", rating, "5", model.RatingAnswer(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceAnswer(tt.q, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceAnswerRejects(t *testing.T) {
	tests := []struct {
		name string
		q    model.SurveyQuestion
		raw  any
	}{
		{"text from number", model.SurveyQuestion{ID: "t", Type: model.QuestionText}, float64(3)},
		{"boolean other word", model.SurveyQuestion{ID: "b", Type: model.QuestionBoolean}, "talvez"},
		{"rating too high", model.SurveyQuestion{ID: "r", Type: model.QuestionRating}, float64(6)},
		{"rating zero", model.SurveyQuestion{ID: "r", Type: model.QuestionRating}, float64(0)},
		{"rating fraction", model.SurveyQuestion{ID: "r", Type: model.QuestionRating}, 2.5},
		{"unknown type", model.SurveyQuestion{ID: "x", Type: "slider"}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CoerceAnswer(tt.q, tt.raw)
			assert.ErrorIs(t, err, ErrInvalidAnswer)
		})
	}
}
