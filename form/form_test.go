package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/survey"
)

var testSurvey = model.SurveyConfig{
	ID:       "ci-001",
	IsActive: true,
	Questions: []model.SurveyQuestion{
		{ID: "q1", Type: model.QuestionBoolean, Required: true},
		{ID: "q1_d", Type: model.QuestionText, Required: true, DependsOn: &model.Dependency{QuestionID: "q1", Value: "Não"}},
		{ID: "q2", Type: model.QuestionRating, Required: true},
	},
}

func ptr[T any](v T) *T { return &v }

func TestNew(t *testing.T) {
	d := New("ci-001")
	assert.Equal(t, DefaultNPS, d.NPSScore)
	assert.NotNil(t, d.Answers)
}

func TestSetAnswerReevaluatesVisibility(t *testing.T) {
	d := New("ci-001")

	v := Evaluate(d, testSurvey)
	assert.Len(t, v.Visible, 2)
	assert.Equal(t, []string{"q1", "q2"}, v.Missing)

	d, err := SetAnswer(d, testSurvey, "q1", "não")
	require.NoError(t, err)
	v = Evaluate(d, testSurvey)
	assert.Len(t, v.Visible, 3)
	assert.Equal(t, []string{"q1_d", "q2"}, v.Missing)

	d, err = SetAnswer(d, testSurvey, "q1_d", "feijão")
	require.NoError(t, err)
	d, err = SetAnswer(d, testSurvey, "q1", "Sim")
	require.NoError(t, err)
	v = Evaluate(d, testSurvey)
	assert.Len(t, v.Visible, 2)
	assert.Equal(t, []string{"q2"}, v.Missing)
	assert.Equal(t, model.TextAnswer("feijão"), d.Answers["q1_d"], "hidden answers stay in the draft")
}

func TestSetAnswerDoesNotAliasPreviousDraft(t *testing.T) {
	before := New("ci-001")
	after, err := SetAnswer(before, testSurvey, "q2", float64(3))
	require.NoError(t, err)

	assert.Empty(t, before.Answers)
	assert.Equal(t, model.RatingAnswer(3), after.Answers["q2"])

	cleared, err := SetAnswer(after, testSurvey, "q2", nil)
	require.NoError(t, err)
	assert.NotContains(t, cleared.Answers, "q2")
	assert.Contains(t, after.Answers, "q2")
}

func TestSetAnswerErrors(t *testing.T) {
	_, err := SetAnswer(New("ci-001"), testSurvey, "zz", "x")
	assert.True(t, errors.Is(err, ErrUnknownQuestion))

	_, err = SetAnswer(New("ci-001"), testSurvey, "q2", float64(9))
	assert.True(t, errors.Is(err, survey.ErrInvalidAnswer))
}

func TestFieldsApply(t *testing.T) {
	d, err := SetAnswer(New("ci-001"), testSurvey, "q2", float64(3))
	require.NoError(t, err)

	d = Fields{CustomerName: ptr("Maria"), Gender: ptr("Feminino"), NPSScore: ptr(7)}.Apply(d)
	assert.Equal(t, "Maria", d.CustomerName)
	assert.Equal(t, 7, d.NPSScore)
	assert.Len(t, d.Answers, 1)

	d = Fields{SurveyID: ptr("other")}.Apply(d)
	assert.Equal(t, "other", d.SurveyID)
	assert.Empty(t, d.Answers)
	assert.Equal(t, "Feminino", d.Gender)
}

func TestReset(t *testing.T) {
	d := Draft{
		SurveyID:     "ci-001",
		StoreID:      "1",
		CustomerName: "Maria",
		Gender:       "Feminino",
		AgeRange:     "25-34 anos",
		NPSScore:     3,
		Answers:      map[string]model.Answer{"q2": model.RatingAnswer(2)},
	}

	r := Reset(d)

	assert.Equal(t, Draft{
		SurveyID: "ci-001",
		StoreID:  "1",
		Gender:   "Feminino",
		AgeRange: "25-34 anos",
		NPSScore: DefaultNPS,
		Answers:  map[string]model.Answer{},
	}, r)
}

func TestStationsUpdate(t *testing.T) {
	s := NewStations()
	init := func() Draft { return New("ci-001") }

	_, ok := s.Get("ana")
	assert.False(t, ok)

	d, err := s.Update("ana", init, func(d Draft) (Draft, error) {
		return SetAnswer(d, testSurvey, "q1", "Sim")
	})
	require.NoError(t, err)
	assert.Len(t, d.Answers, 1)

	_, err = s.Update("ana", init, func(d Draft) (Draft, error) {
		return SetAnswer(d, testSurvey, "q2", "excellent")
	})
	assert.Error(t, err)

	stored, ok := s.Get("ana")
	require.True(t, ok)
	assert.Len(t, stored.Answers, 1)

	s.Delete("ana")
	_, ok = s.Get("ana")
	assert.False(t, ok)
}
