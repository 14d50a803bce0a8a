package routes

import (
	"net/http"
	"net/url"
	"regexp"

	"github.com/go-chi/render"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/routes/middlewares"
	"github.com/mbolis/conect-insights/state"
)

var reRefreshAuth = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		grant(app, w, r, "login", url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefreshAuth.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		grant(app, w, r, "refresh", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		})
	}
}

// grant runs a token request through the bearer server and also hands the tokens out as cookies.
func grant(app app.App, w http.ResponseWriter, r *http.Request, code string, body url.Values) {
	resp := httpx.NewResponseBuffer()
	app.UserCredentials(resp, httpx.GrantRequest(r, body))
	if resp.Status() != http.StatusOK {
		log.Debugf("%s: status %d", code, resp.Status())
		resp.Flush(w)
		return
	}

	var tokens httpx.TokenResponse
	if err := resp.DecodeJSON(&tokens); err != nil {
		httpx.LogInternalError(w, code+".decode", err)
		return
	}
	middlewares.SetTokenCookies(w, tokens)
	resp.Flush(w)
}

func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middlewares.Username(r)
		if err := app.Tokens.RevokeTokens(r.Context(), username); err != nil {
			httpx.LogInternalError(w, "logout.revoke", err)
			return
		}
		app.Stations.Delete(username)

		middlewares.ClearTokenCookies(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// currentAccount returns the token holder as resolved for this request.
func currentAccount(r *http.Request) (state.Account, bool) {
	return middlewares.Account(r)
}

func Me(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := currentAccount(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "me.unknown_user")
			return
		}
		render.JSON(w, r, account.User)
	}
}
