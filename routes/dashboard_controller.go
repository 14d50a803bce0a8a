package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/dashboard"
	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
)

// windowParam reads the days query parameter, which must be one of the window presets.
func windowParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return dashboard.DefaultWindow, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || !dashboard.ValidWindow(days) {
		return 0, false
	}
	return days, true
}

func Dashboard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, ok := windowParam(r)
		if !ok {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "dashboard.days", "days must be one of %v", dashboard.WindowPresets)
			return
		}

		st := app.Snapshot()
		render.JSON(w, r, dashboard.Summarize(st.Submissions, st.Stores, days, app.Now()))
	}
}

func Analysis(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, ok := windowParam(r)
		if !ok {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "analysis.days", "days must be one of %v", dashboard.WindowPresets)
			return
		}

		st := app.Snapshot()
		submissions := dashboard.FilterByWindow(st.Submissions, days, app.Now())
		result, err := app.Analyzer.Analyze(r.Context(), submissions, st.Stores, st.Surveys)
		switch {
		case errors.Is(err, dashboard.ErrNoSubmissions):
			httpx.LogProblems(w, r, http.StatusUnprocessableEntity, "analysis.empty", err)
			return
		case err != nil:
			log.Errorf("ai.analyze: %s", err)
			httpx.LogStatus(w, http.StatusBadGateway, log.DebugLevel, "analysis.failed")
			return
		}

		render.JSON(w, r, result)
	}
}
