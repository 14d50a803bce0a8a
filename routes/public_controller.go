package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/dashboard"
	"github.com/mbolis/conect-insights/form"
	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/state"
	"github.com/mbolis/conect-insights/survey"
)

type scoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func Options(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"genders":        model.GenderOptions,
		"ageRanges":      model.AgeOptions,
		"booleanOptions": model.BooleanOptions,
		"questionTypes":  []model.QuestionType{model.QuestionText, model.QuestionBoolean, model.QuestionRating},
		"nps":            scoreRange{model.MinNPS, model.MaxNPS},
		"rating":         scoreRange{model.MinRating, model.MaxRating},
		"windows":        dashboard.WindowPresets,
		"defaultWindow":  dashboard.DefaultWindow,
	})
}

func ListStores(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"stores": app.Snapshot().Stores,
		})
	}
}

func ListActiveSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"surveys": app.Snapshot().ActiveSurveys(),
		})
	}
}

func GetActiveSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")
		s, ok := app.Snapshot().Survey(surveyId)
		if !ok || !s.IsActive {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		render.JSON(w, r, s)
	}
}

type submissionRequest struct {
	form.Fields
	Answers map[string]any `json:"answers"`
}

// SubmitSurvey records a whole submission in one request, without going through the station draft.
func SubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := currentAccount(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "submit_survey.unknown_user")
			return
		}

		req := submissionRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		surveyId := chi.URLParam(r, "id")
		s, ok := app.Snapshot().Survey(surveyId)
		if !ok {
			httpx.LogNotFound(w, "submit_survey", surveyId)
			return
		}

		req.SurveyID = nil
		d := req.Fields.Apply(form.New(surveyId))
		var problems *multierror.Error
		if req.NPSScore == nil {
			problems = multierror.Append(problems, fmt.Errorf("%w: nps score is required", state.ErrInvalid))
		}

		rejected := map[string]error{}
		for qid, raw := range req.Answers {
			next, err := form.SetAnswer(d, s, qid, raw)
			if err != nil {
				rejected[qid] = err
				continue
			}
			d = next
		}
		// answers to hidden questions are dropped on record, so their values do not matter
		for qid, err := range rejected {
			if q, _, ok := s.Question(qid); ok && !survey.IsVisible(q, d.Answers) {
				continue
			}
			problems = multierror.Append(problems, err)
		}
		if err := problems.ErrorOrNil(); err != nil {
			httpx.LogProblems(w, r, http.StatusUnprocessableEntity, "submit_survey.answers", err)
			return
		}

		var sub model.Submission
		_, err := app.Apply(r.Context(), state.Submissions, func(st state.State) (next state.State, err error) {
			next, sub, err = state.RecordSubmission(st, d, account.User, app.NewID(), app.Now())
			return
		})
		if err != nil {
			httpx.LogError(w, r, "submit_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sub)
	}
}
