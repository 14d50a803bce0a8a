package survey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/conect-insights/model"
)

var (
	ErrQuestionNotFound   = errors.New("question not found")
	ErrInvalidSurvey      = errors.New("invalid survey")
	ErrInvalidQuestion    = errors.New("invalid question")
	ErrInvalidDependency  = errors.New("invalid dependency")
	ErrQuestionReferenced = errors.New("question is referenced by a dependency")
)

const (
	DefaultSurveyName        = "Nova Auditoria de PDV"
	DefaultSurveyDescription = "Objetivo estratégico da coleta..."
	DefaultQuestionLabel     = "Nova Pergunta Analítica"
)

var reNoIdent = regexp.MustCompile(`\W+`)

// questionID derives a stable identifier from the label, suffixed with __n on collisions.
func questionID(label string, questions []model.SurveyQuestion) string {
	name := strings.ToLower(label)
	name = reNoIdent.ReplaceAllLiteralString(name, " ")
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		name = "q"
	}

	taken := make(map[string]bool, len(questions))
	for _, q := range questions {
		taken[q.ID] = true
	}
	if !taken[name] {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s__%d", name, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

func NewSurvey(id, name, description string, now time.Time) model.SurveyConfig {
	if strings.TrimSpace(name) == "" {
		name = DefaultSurveyName
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultSurveyDescription
	}
	return model.SurveyConfig{
		ID:          id,
		Name:        name,
		Description: description,
		IsActive:    false,
		Questions:   []model.SurveyQuestion{},
		CreatedAt:   now,
	}
}

// clone copies the question list and dependency clauses so edits never alias the input.
func clone(s model.SurveyConfig) model.SurveyConfig {
	questions := make([]model.SurveyQuestion, len(s.Questions))
	for i, q := range s.Questions {
		if q.DependsOn != nil {
			dep := *q.DependsOn
			q.DependsOn = &dep
		}
		questions[i] = q
	}
	s.Questions = questions
	return s
}

func UpdateDetails(s model.SurveyConfig, name, description string) model.SurveyConfig {
	s = clone(s)
	if strings.TrimSpace(name) != "" {
		s.Name = name
	}
	s.Description = description
	return s
}

func SetActive(s model.SurveyConfig, active bool) model.SurveyConfig {
	s = clone(s)
	s.IsActive = active
	return s
}

func AddQuestion(s model.SurveyConfig, label string, typ model.QuestionType, required bool) (model.SurveyConfig, model.SurveyQuestion, error) {
	if typ == "" {
		typ = model.QuestionText
	}
	if !typ.Valid() {
		return s, model.SurveyQuestion{}, fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, typ)
	}
	if strings.TrimSpace(label) == "" {
		label = DefaultQuestionLabel
	}

	s = clone(s)
	q := model.SurveyQuestion{
		ID:       questionID(label, s.Questions),
		Label:    label,
		Type:     typ,
		Required: required,
	}
	s.Questions = append(s.Questions, q)
	return s, q, nil
}

// UpdateQuestion changes label and type; blank values keep the current ones.
func UpdateQuestion(s model.SurveyConfig, id, label string, typ model.QuestionType) (model.SurveyConfig, error) {
	q, i, ok := s.Question(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	if typ == "" {
		typ = q.Type
	}
	if !typ.Valid() {
		return s, fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, typ)
	}

	s = clone(s)
	if strings.TrimSpace(label) != "" {
		s.Questions[i].Label = label
	}
	s.Questions[i].Type = typ
	return s, nil
}

func SetRequired(s model.SurveyConfig, id string, required bool) (model.SurveyConfig, error) {
	_, i, ok := s.Question(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	s = clone(s)
	s.Questions[i].Required = required
	return s, nil
}

func RemoveQuestion(s model.SurveyConfig, id string) (model.SurveyConfig, error) {
	_, i, ok := s.Question(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	for _, q := range s.Questions {
		if q.DependsOn != nil && q.DependsOn.QuestionID == id {
			return s, fmt.Errorf("%w: %s depends on %s", ErrQuestionReferenced, q.ID, id)
		}
	}

	s = clone(s)
	s.Questions = append(s.Questions[:i], s.Questions[i+1:]...)
	return s, nil
}

// MoveQuestion moves the question to index to, clamped to the list bounds.
func MoveQuestion(s model.SurveyConfig, id string, to int) (model.SurveyConfig, error) {
	_, from, ok := s.Question(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	if to < 0 {
		to = 0
	}
	if to > len(s.Questions)-1 {
		to = len(s.Questions) - 1
	}

	moved := clone(s)
	q := moved.Questions[from]
	rest := append(moved.Questions[:from:from], moved.Questions[from+1:]...)
	questions := make([]model.SurveyQuestion, 0, len(s.Questions))
	questions = append(questions, rest[:to]...)
	questions = append(questions, q)
	questions = append(questions, rest[to:]...)
	moved.Questions = questions

	if err := ValidateDependencies(moved); err != nil {
		return s, err
	}
	return moved, nil
}

func SetDependency(s model.SurveyConfig, id string, dep model.Dependency) (model.SurveyConfig, error) {
	_, i, ok := s.Question(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	_, j, ok := s.Question(dep.QuestionID)
	switch {
	case !ok:
		return s, fmt.Errorf("%w: %s refers to unknown question %s", ErrInvalidDependency, id, dep.QuestionID)
	case j >= i:
		return s, fmt.Errorf("%w: %s must refer to an earlier question, not %s", ErrInvalidDependency, id, dep.QuestionID)
	}

	s = clone(s)
	s.Questions[i].DependsOn = &dep
	return s, nil
}

func ClearDependency(s model.SurveyConfig, id string) (model.SurveyConfig, error) {
	_, i, ok := s.Question(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	s = clone(s)
	s.Questions[i].DependsOn = nil
	return s, nil
}

// ValidateDependencies checks every dependency points at a strictly earlier question.
func ValidateDependencies(s model.SurveyConfig) error {
	var result *multierror.Error
	position := make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		position[q.ID] = i
	}
	for i, q := range s.Questions {
		if q.DependsOn == nil {
			continue
		}
		j, ok := position[q.DependsOn.QuestionID]
		switch {
		case !ok:
			result = multierror.Append(result, fmt.Errorf("%w: %s refers to unknown question %s", ErrInvalidDependency, q.ID, q.DependsOn.QuestionID))
		case j >= i:
			result = multierror.Append(result, fmt.Errorf("%w: %s must refer to an earlier question, not %s", ErrInvalidDependency, q.ID, q.DependsOn.QuestionID))
		}
	}
	return result.ErrorOrNil()
}

// Validate checks a whole survey submitted for replacement.
func Validate(s model.SurveyConfig) error {
	var result *multierror.Error
	if strings.TrimSpace(s.Name) == "" {
		result = multierror.Append(result, fmt.Errorf("%w: name is required", ErrInvalidSurvey))
	}
	seen := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		switch {
		case strings.TrimSpace(q.ID) == "":
			result = multierror.Append(result, fmt.Errorf("%w: question id is required", ErrInvalidQuestion))
		case seen[q.ID]:
			result = multierror.Append(result, fmt.Errorf("%w: duplicate question id %s", ErrInvalidQuestion, q.ID))
		}
		seen[q.ID] = true
		if !q.Type.Valid() {
			result = multierror.Append(result, fmt.Errorf("%w: %s has unknown type %q", ErrInvalidQuestion, q.ID, q.Type))
		}
	}
	if err := ValidateDependencies(s); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
