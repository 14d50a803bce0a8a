package survey

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mbolis/conect-insights/model"
)

func normalize(s string) string {
	return strings.TrimSpace(cases.Lower(language.Und).String(s))
}

// IsVisible reports whether q should be presented given the answers collected so far.
// Questions without a dependency are always visible. A missing controlling answer compares
// as the empty string.
func IsVisible(q model.SurveyQuestion, answers map[string]model.Answer) bool {
	if q.DependsOn == nil {
		return true
	}
	return normalize(answers[q.DependsOn.QuestionID].String()) == normalize(q.DependsOn.Value)
}

func VisibleQuestions(s model.SurveyConfig, answers map[string]model.Answer) []model.SurveyQuestion {
	visible := make([]model.SurveyQuestion, 0, len(s.Questions))
	for _, q := range s.Questions {
		if IsVisible(q, answers) {
			visible = append(visible, q)
		}
	}
	return visible
}

// MissingRequired lists the ids of visible required questions with no non-blank answer.
func MissingRequired(s model.SurveyConfig, answers map[string]model.Answer) []string {
	var missing []string
	for _, q := range VisibleQuestions(s, answers) {
		if !q.Required {
			continue
		}
		a, ok := answers[q.ID]
		if !ok || strings.TrimSpace(a.String()) == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
