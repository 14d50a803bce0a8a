package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/form"
	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/routes/middlewares"
	"github.com/mbolis/conect-insights/state"
)

// newDraft starts a station on the first active survey and the collector's own store.
func newDraft(st state.State, account state.Account) func() form.Draft {
	return func() form.Draft {
		surveyId := ""
		if active := st.ActiveSurveys(); len(active) > 0 {
			surveyId = active[0].ID
		}
		d := form.New(surveyId)
		d.StoreID = account.AssignedStoreID
		return d
	}
}

func renderDraft(w http.ResponseWriter, r *http.Request, st state.State, d form.Draft) {
	s, _ := st.Survey(d.SurveyID)
	render.JSON(w, r, form.Evaluate(d, s))
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := currentAccount(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "get_form.unknown_user")
			return
		}

		st := app.Snapshot()
		d, _ := app.Stations.Update(account.Username, newDraft(st, account), func(d form.Draft) (form.Draft, error) {
			return d, nil
		})
		renderDraft(w, r, st, d)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := currentAccount(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "update_form.unknown_user")
			return
		}

		fields := form.Fields{}
		if err := render.DecodeJSON(r.Body, &fields); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		st := app.Snapshot()
		if fields.SurveyID != nil {
			if _, ok := st.Survey(*fields.SurveyID); !ok {
				httpx.LogError(w, r, "update_form.survey", fmt.Errorf("%w: unknown survey %s", state.ErrInvalid, *fields.SurveyID))
				return
			}
		}

		d, _ := app.Stations.Update(account.Username, newDraft(st, account), func(d form.Draft) (form.Draft, error) {
			return fields.Apply(d), nil
		})
		renderDraft(w, r, st, d)
	}
}

func DiscardForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.Stations.Delete(middlewares.Username(r))
		w.WriteHeader(http.StatusNoContent)
	}
}

type answerRequest struct {
	Value any `json:"value"`
}

func SetFormAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := currentAccount(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "set_answer.unknown_user")
			return
		}

		req := answerRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		st := app.Snapshot()
		questionId := chi.URLParam(r, "questionId")
		d, err := app.Stations.Update(account.Username, newDraft(st, account), func(d form.Draft) (form.Draft, error) {
			s, ok := st.Survey(d.SurveyID)
			if !ok {
				return d, fmt.Errorf("survey %s: %w", d.SurveyID, state.ErrNotFound)
			}
			return form.SetAnswer(d, s, questionId, req.Value)
		})
		if err != nil {
			httpx.LogError(w, r, "set_answer", err)
			return
		}
		renderDraft(w, r, st, d)
	}
}

// SubmitForm records the station draft and resets it for the next respondent.
func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := currentAccount(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "submit_form.unknown_user")
			return
		}

		var sub model.Submission
		var next state.State
		_, err := app.Stations.Update(account.Username, newDraft(app.Snapshot(), account), func(d form.Draft) (form.Draft, error) {
			var err error
			next, err = app.Apply(r.Context(), state.Submissions, func(st state.State) (next state.State, err error) {
				next, sub, err = state.RecordSubmission(st, d, account.User, app.NewID(), app.Now())
				return
			})
			if err != nil {
				return d, err
			}
			return form.Reset(d), nil
		})
		if err != nil {
			httpx.LogError(w, r, "submit_form", err)
			return
		}

		d, _ := app.Stations.Get(account.Username)
		s, _ := next.Survey(d.SurveyID)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"submission": sub,
			"form":       form.Evaluate(d, s),
		})
	}
}
