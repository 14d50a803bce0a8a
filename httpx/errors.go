package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/conect-insights/form"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/state"
	"github.com/mbolis/conect-insights/survey"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

type ErrorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// Problems lists the individual failures aggregated in err.
func Problems(err error) []string {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []string{err.Error()}
	}
	problems := []string{}
	for _, e := range merr.WrappedErrors() {
		problems = append(problems, Problems(e)...)
	}
	return problems
}

// Will log a debug message, and send a JSON response with the given status
// listing every problem found in err
func LogProblems(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	log.Debugf("%s: %s", code, err)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:    http.StatusText(status),
		Problems: Problems(err),
	})
}

// StatusOf maps domain errors to HTTP status codes, 0 when err is not a domain error.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, state.ErrNotFound),
		errors.Is(err, survey.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrConflict),
		errors.Is(err, state.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, state.ErrInvalid),
		errors.Is(err, survey.ErrInvalidSurvey),
		errors.Is(err, survey.ErrInvalidQuestion),
		errors.Is(err, survey.ErrInvalidDependency),
		errors.Is(err, survey.ErrQuestionReferenced),
		errors.Is(err, survey.ErrInvalidAnswer),
		errors.Is(err, form.ErrUnknownQuestion):
		return http.StatusUnprocessableEntity
	}
	return 0
}

// Will answer domain errors with their status and problems,
// anything else is logged as an internal error
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	status := StatusOf(err)
	if status == 0 {
		LogInternalError(w, code, err)
		return
	}
	LogProblems(w, r, status, code, err)
}
