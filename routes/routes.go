package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.RealIP, log.Requests, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(
			middlewares.CookieAuth(app.BearerServer),
			middlewares.Authenticated(app.TokenSecret),
			middlewares.CurrentUser(app.Holder),
		)

		r.Post("/logout", Logout(app))
		r.Get("/me", Me(app))

		r.Get("/options", Options)
		r.Get("/stores", ListStores(app))
		r.Get("/surveys", ListActiveSurveys(app))
		r.Get("/surveys/{id}", GetActiveSurvey(app))
		r.Post("/surveys/{id}/submissions", SubmitSurvey(app))

		r.Route("/form", func(r chi.Router) {
			r.Get("/", GetForm(app))
			r.Put("/", UpdateForm(app))
			r.Delete("/", DiscardForm(app))
			r.Put("/answers/{questionId}", SetFormAnswer(app))
			r.Post("/submit", SubmitForm(app))
		})

		r.Get("/dashboard", Dashboard(app))
		r.Post("/dashboard/analysis", Analysis(app))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.RequireRole(model.RoleAdmin))

			// CRUD survey
			r.Post("/surveys", CreateSurvey(app))
			r.Get("/surveys", ListSurveys(app))
			r.Get("/surveys/{id}", GetSurveyById(app))
			r.Put("/surveys/{id}", ReplaceSurvey(app))
			r.Patch("/surveys/{id}", UpdateSurveyDetails(app))
			r.Delete("/surveys/{id}", DeleteSurvey(app))
			r.Put("/surveys/{id}/active", SetSurveyActive(app))
			r.Get("/surveys/{id}/submissions", GetSurveySubmissions(app))

			// questions
			r.Post("/surveys/{id}/questions", AddQuestion(app))
			r.Patch("/surveys/{id}/questions/{questionId}", UpdateQuestion(app))
			r.Delete("/surveys/{id}/questions/{questionId}", RemoveQuestion(app))
			r.Put("/surveys/{id}/questions/{questionId}/position", MoveQuestion(app))
			r.Put("/surveys/{id}/questions/{questionId}/dependency", SetDependency(app))
			r.Delete("/surveys/{id}/questions/{questionId}/dependency", ClearDependency(app))

			r.Post("/stores", CreateStore(app))
			r.Delete("/stores/{id}", DeleteStore(app))

			r.Get("/users", ListUsers(app))
			r.Post("/users", CreateUser(app))
			r.Delete("/users/{id}", DeleteUser(app))
		})
	})

	return api
}
