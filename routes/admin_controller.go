package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/state"
	"github.com/mbolis/conect-insights/survey"
)

type surveyDetails struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := surveyDetails{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		created := survey.NewSurvey(app.NewID(), req.Name, req.Description, app.Now())
		_, err := app.Apply(r.Context(), state.Surveys, func(st state.State) (state.State, error) {
			return state.AddSurvey(st, created)
		})
		if err != nil {
			httpx.LogError(w, r, "create_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, created)
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"surveys": app.Snapshot().Surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")
		s, ok := app.Snapshot().Survey(surveyId)
		if !ok {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		render.JSON(w, r, s)
	}
}

// ReplaceSurvey swaps the whole survey; the body must carry the version it was read at.
func ReplaceSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		replacement := model.SurveyConfig{}
		if err := render.DecodeJSON(r.Body, &replacement); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		replacement.ID = chi.URLParam(r, "id")

		var replaced model.SurveyConfig
		_, err := app.Apply(r.Context(), state.Surveys, func(st state.State) (next state.State, err error) {
			next, replaced, err = state.ReplaceSurvey(st, replacement)
			return
		})
		if err != nil {
			httpx.LogError(w, r, "replace_survey", err)
			return
		}
		render.JSON(w, r, replaced)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")
		_, err := app.Apply(r.Context(), state.Surveys, func(st state.State) (state.State, error) {
			return state.DeleteSurvey(st, surveyId)
		})
		if err != nil {
			httpx.LogError(w, r, "delete_survey", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSurveySubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := app.Snapshot()
		surveyId := chi.URLParam(r, "id")
		if _, ok := st.Survey(surveyId); !ok {
			httpx.LogNotFound(w, "get_survey_submissions", surveyId)
			return
		}

		submissions := []model.Submission{}
		for _, s := range st.Submissions {
			if s.SurveyID == surveyId {
				submissions = append(submissions, s)
			}
		}
		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}

// editSurvey decodes the body into req, applies edit to the survey named in the URL and
// answers with the edited survey.
func editSurvey[T any](app app.App, code string, edit func(s model.SurveyConfig, req T, r *http.Request) (model.SurveyConfig, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if r.ContentLength != 0 {
			if err := render.DecodeJSON(r.Body, &req); err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
				return
			}
		}

		var edited model.SurveyConfig
		_, err := app.Apply(r.Context(), state.Surveys, func(st state.State) (next state.State, err error) {
			next, edited, err = state.EditSurvey(st, chi.URLParam(r, "id"), func(s model.SurveyConfig) (model.SurveyConfig, error) {
				return edit(s, req, r)
			})
			return
		})
		if err != nil {
			httpx.LogError(w, r, code, err)
			return
		}
		render.JSON(w, r, edited)
	}
}

func UpdateSurveyDetails(app app.App) http.HandlerFunc {
	return editSurvey(app, "update_survey", func(s model.SurveyConfig, req surveyDetails, _ *http.Request) (model.SurveyConfig, error) {
		return survey.UpdateDetails(s, req.Name, req.Description), nil
	})
}

type activeRequest struct {
	IsActive bool `json:"isActive"`
}

func SetSurveyActive(app app.App) http.HandlerFunc {
	return editSurvey(app, "set_survey_active", func(s model.SurveyConfig, req activeRequest, _ *http.Request) (model.SurveyConfig, error) {
		return survey.SetActive(s, req.IsActive), nil
	})
}

type questionRequest struct {
	Label    string             `json:"label"`
	Type     model.QuestionType `json:"type"`
	Required *bool              `json:"required"`
}

func AddQuestion(app app.App) http.HandlerFunc {
	return editSurvey(app, "add_question", func(s model.SurveyConfig, req questionRequest, _ *http.Request) (model.SurveyConfig, error) {
		s, _, err := survey.AddQuestion(s, req.Label, req.Type, req.Required != nil && *req.Required)
		return s, err
	})
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return editSurvey(app, "update_question", func(s model.SurveyConfig, req questionRequest, r *http.Request) (model.SurveyConfig, error) {
		questionId := chi.URLParam(r, "questionId")
		s, err := survey.UpdateQuestion(s, questionId, req.Label, req.Type)
		if err != nil || req.Required == nil {
			return s, err
		}
		return survey.SetRequired(s, questionId, *req.Required)
	})
}

func RemoveQuestion(app app.App) http.HandlerFunc {
	return editSurvey(app, "remove_question", func(s model.SurveyConfig, _ struct{}, r *http.Request) (model.SurveyConfig, error) {
		return survey.RemoveQuestion(s, chi.URLParam(r, "questionId"))
	})
}

type positionRequest struct {
	Index int `json:"index"`
}

func MoveQuestion(app app.App) http.HandlerFunc {
	return editSurvey(app, "move_question", func(s model.SurveyConfig, req positionRequest, r *http.Request) (model.SurveyConfig, error) {
		return survey.MoveQuestion(s, chi.URLParam(r, "questionId"), req.Index)
	})
}

func SetDependency(app app.App) http.HandlerFunc {
	return editSurvey(app, "set_dependency", func(s model.SurveyConfig, req model.Dependency, r *http.Request) (model.SurveyConfig, error) {
		return survey.SetDependency(s, chi.URLParam(r, "questionId"), req)
	})
}

func ClearDependency(app app.App) http.HandlerFunc {
	return editSurvey(app, "clear_dependency", func(s model.SurveyConfig, _ struct{}, r *http.Request) (model.SurveyConfig, error) {
		return survey.ClearDependency(s, chi.URLParam(r, "questionId"))
	})
}
