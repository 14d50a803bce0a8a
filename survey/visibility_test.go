package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbolis/conect-insights/model"
)

func storeVisitSurvey() model.SurveyConfig {
	return model.SurveyConfig{
		ID:       "ci-001",
		Name:     "Pesquisa de Performance no PDV",
		IsActive: true,
		Questions: []model.SurveyQuestion{
			{ID: "q1", Label: "Conseguiu encontrar todos os produtos da sua lista?", Type: model.QuestionBoolean, Required: true},
			{ID: "q1_d", Label: "Quais itens não estavam disponíveis?", Type: model.QuestionText, Required: true,
				DependsOn: &model.Dependency{QuestionID: "q1", Value: "Não"}},
			{ID: "q2", Label: "Nota para a equipe", Type: model.QuestionRating, Required: true},
			{ID: "q3", Label: "Sugestões", Type: model.QuestionText, Required: false},
		},
	}
}

func TestIsVisibleWithoutDependency(t *testing.T) {
	q := model.SurveyQuestion{ID: "q", Type: model.QuestionText}

	assert.True(t, IsVisible(q, nil))
	assert.True(t, IsVisible(q, map[string]model.Answer{"x": model.TextAnswer("y")}))
}

func TestIsVisibleComparesNormalizedStrings(t *testing.T) {
	q := model.SurveyQuestion{ID: "q1_d", DependsOn: &model.Dependency{QuestionID: "q1", Value: "Não"}}

	tests := []struct {
		name    string
		answers map[string]model.Answer
		want    bool
	}{
		{"same value", map[string]model.Answer{"q1": model.BooleanAnswer("Não")}, true},
		{"different case", map[string]model.Answer{"q1": model.BooleanAnswer("não")}, true},
		{"upper case with spaces", map[string]model.Answer{"q1": model.TextAnswer("  NÃO ")}, true},
		{"other value", map[string]model.Answer{"q1": model.BooleanAnswer("Sim")}, false},
		{"missing answer", map[string]model.Answer{}, false},
		{"nil answers", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(q, tt.answers))
		})
	}
}

func TestIsVisibleEmptyValueMatchesMissingAnswer(t *testing.T) {
	q := model.SurveyQuestion{ID: "b", DependsOn: &model.Dependency{QuestionID: "a", Value: " "}}

	assert.True(t, IsVisible(q, nil))
}

func TestIsVisibleRatingDependency(t *testing.T) {
	q := model.SurveyQuestion{ID: "why", DependsOn: &model.Dependency{QuestionID: "q2", Value: "1"}}

	assert.True(t, IsVisible(q, map[string]model.Answer{"q2": model.RatingAnswer(1)}))
	assert.False(t, IsVisible(q, map[string]model.Answer{"q2": model.RatingAnswer(5)}))
}

func TestIsVisibleSelfReferenceIsNotSpecialCased(t *testing.T) {
	q := model.SurveyQuestion{ID: "q", DependsOn: &model.Dependency{QuestionID: "q", Value: "yes"}}

	assert.False(t, IsVisible(q, nil))
	assert.True(t, IsVisible(q, map[string]model.Answer{"q": model.TextAnswer("yes")}))
}

func TestVisibleQuestions(t *testing.T) {
	s := storeVisitSurvey()

	ids := func(qs []model.SurveyQuestion) []string {
		out := []string{}
		for _, q := range qs {
			out = append(out, q.ID)
		}
		return out
	}

	assert.Equal(t, []string{"q1", "q2", "q3"}, ids(VisibleQuestions(s, nil)))
	assert.Equal(t, []string{"q1", "q1_d", "q2", "q3"},
		ids(VisibleQuestions(s, map[string]model.Answer{"q1": model.BooleanAnswer("não")})))
}

func TestMissingRequiredSkipsHiddenQuestions(t *testing.T) {
	s := storeVisitSurvey()

	missing := MissingRequired(s, map[string]model.Answer{
		"q1": model.BooleanAnswer("Sim"),
		"q2": model.RatingAnswer(4),
	})
	assert.Empty(t, missing)

	missing = MissingRequired(s, map[string]model.Answer{
		"q1": model.BooleanAnswer("Não"),
		"q2": model.RatingAnswer(4),
	})
	assert.Equal(t, []string{"q1_d"}, missing)

	missing = MissingRequired(s, map[string]model.Answer{
		"q1":   model.BooleanAnswer("Não"),
		"q1_d": model.TextAnswer("   "),
	})
	assert.Equal(t, []string{"q1_d", "q2"}, missing)
}
