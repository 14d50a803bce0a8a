package form

import (
	"errors"
	"fmt"

	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/survey"
)

const DefaultNPS = 10

var ErrUnknownQuestion = errors.New("unknown question")

// Draft is the transient form of one collection station.
type Draft struct {
	SurveyID     string                  `json:"surveyId"`
	StoreID      string                  `json:"storeId"`
	CustomerName string                  `json:"customerName"`
	Gender       string                  `json:"gender"`
	AgeRange     string                  `json:"ageRange"`
	NPSScore     int                     `json:"npsScore"`
	Answers      map[string]model.Answer `json:"answers"`
}

func New(surveyID string) Draft {
	return Draft{
		SurveyID: surveyID,
		NPSScore: DefaultNPS,
		Answers:  map[string]model.Answer{},
	}
}

func copyAnswers(answers map[string]model.Answer) map[string]model.Answer {
	out := make(map[string]model.Answer, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}

// Fields is a partial update of the identification part of a draft; nil fields are left as is.
type Fields struct {
	SurveyID     *string `json:"surveyId"`
	StoreID      *string `json:"storeId"`
	CustomerName *string `json:"customerName"`
	Gender       *string `json:"gender"`
	AgeRange     *string `json:"ageRange"`
	NPSScore     *int    `json:"npsScore"`
}

// Apply updates the draft. Selecting another survey drops the answers given to the previous one.
func (f Fields) Apply(d Draft) Draft {
	d.Answers = copyAnswers(d.Answers)
	if f.SurveyID != nil && *f.SurveyID != d.SurveyID {
		d.SurveyID = *f.SurveyID
		d.Answers = map[string]model.Answer{}
	}
	if f.StoreID != nil {
		d.StoreID = *f.StoreID
	}
	if f.CustomerName != nil {
		d.CustomerName = *f.CustomerName
	}
	if f.Gender != nil {
		d.Gender = *f.Gender
	}
	if f.AgeRange != nil {
		d.AgeRange = *f.AgeRange
	}
	if f.NPSScore != nil {
		d.NPSScore = *f.NPSScore
	}
	return d
}

// SetAnswer records raw as the answer to questionID, coerced to the question type.
// Answers to questions that become hidden are kept in the draft.
func SetAnswer(d Draft, s model.SurveyConfig, questionID string, raw any) (Draft, error) {
	q, _, ok := s.Question(questionID)
	if !ok {
		return d, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	a, err := survey.CoerceAnswer(q, raw)
	if err != nil {
		return d, err
	}

	d.Answers = copyAnswers(d.Answers)
	if a.IsZero() {
		delete(d.Answers, questionID)
	} else {
		d.Answers[questionID] = a
	}
	return d, nil
}

// Reset prepares the draft for the next respondent at the same station: answers, NPS and
// customer name are cleared, gender, age range, store and survey are kept.
func Reset(d Draft) Draft {
	d.CustomerName = ""
	d.NPSScore = DefaultNPS
	d.Answers = map[string]model.Answer{}
	return d
}

type View struct {
	Draft
	Visible []model.SurveyQuestion `json:"visible"`
	Missing []string               `json:"missing"`
}

// Evaluate re-runs visibility over the draft answers.
func Evaluate(d Draft, s model.SurveyConfig) View {
	missing := survey.MissingRequired(s, d.Answers)
	if missing == nil {
		missing = []string{}
	}
	return View{
		Draft:   d,
		Visible: survey.VisibleQuestions(s, d.Answers),
		Missing: missing,
	}
}
