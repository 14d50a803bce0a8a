package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/conect-insights/form"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/survey"
)

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// ResolveStore prefers the store assigned to the collector over the one picked in the form.
func ResolveStore(user model.User, d form.Draft) string {
	if user.AssignedStoreID != "" {
		return user.AssignedStoreID
	}
	return strings.TrimSpace(d.StoreID)
}

// RecordSubmission validates the draft and prepends the resulting submission. Only answers to
// questions visible at submission time are recorded.
func RecordSubmission(st State, d form.Draft, user model.User, id string, now time.Time) (State, model.Submission, error) {
	storeID := ResolveStore(user, d)
	if storeID == "" {
		return st, model.Submission{}, ErrNoStore
	}

	cfg, ok := st.Survey(d.SurveyID)
	if !ok {
		return st, model.Submission{}, fmt.Errorf("survey %s: %w", d.SurveyID, ErrNotFound)
	}
	if !cfg.IsActive {
		return st, model.Submission{}, ErrSurveyInactive
	}

	var problems *multierror.Error
	if strings.TrimSpace(d.CustomerName) == "" {
		problems = multierror.Append(problems, fmt.Errorf("%w: customer name is required", ErrInvalid))
	}
	if !contains(model.GenderOptions, d.Gender) {
		problems = multierror.Append(problems, fmt.Errorf("%w: gender must be one of %s", ErrInvalid, strings.Join(model.GenderOptions, ", ")))
	}
	if !contains(model.AgeOptions, d.AgeRange) {
		problems = multierror.Append(problems, fmt.Errorf("%w: age range must be one of %s", ErrInvalid, strings.Join(model.AgeOptions, ", ")))
	}
	if d.NPSScore < model.MinNPS || d.NPSScore > model.MaxNPS {
		problems = multierror.Append(problems, fmt.Errorf("%w: nps score must be between %d and %d", ErrInvalid, model.MinNPS, model.MaxNPS))
	}
	for _, qid := range survey.MissingRequired(cfg, d.Answers) {
		problems = multierror.Append(problems, fmt.Errorf("%w: question %s is required", ErrInvalid, qid))
	}

	answers := make(map[string]model.Answer)
	for _, q := range survey.VisibleQuestions(cfg, d.Answers) {
		a, ok := d.Answers[q.ID]
		if !ok {
			continue
		}
		if a.Kind != q.Type {
			problems = multierror.Append(problems, fmt.Errorf("%w: question %s expects a %s answer", ErrInvalid, q.ID, q.Type))
			continue
		}
		answers[q.ID] = a
	}
	if err := problems.ErrorOrNil(); err != nil {
		return st, model.Submission{}, err
	}

	sub := model.Submission{
		ID:           id,
		SurveyID:     cfg.ID,
		StoreID:      storeID,
		Timestamp:    now,
		CustomerName: strings.TrimSpace(d.CustomerName),
		Gender:       d.Gender,
		AgeRange:     d.AgeRange,
		NPSScore:     d.NPSScore,
		Answers:      answers,
	}

	submissions := make([]model.Submission, 0, len(st.Submissions)+1)
	submissions = append(submissions, sub)
	st.Submissions = append(submissions, st.Submissions...)
	return st, sub, nil
}
