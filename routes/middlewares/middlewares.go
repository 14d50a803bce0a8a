package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/oauth"

	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/state"
)

// Authenticated rejects requests without a valid bearer token.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return oauth.Authorize(secret, nil)
}

// Username returns the credential the access token was issued to.
func Username(r *http.Request) string {
	username, _ := r.Context().Value(oauth.CredentialContext).(string)
	return username
}

type accountKey struct{}

// CurrentUser looks the token holder up in the current state, so removed accounts lose
// access before their token expires. It must run after Authenticated.
func CurrentUser(holder *state.Holder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := holder.Snapshot().UserByName(Username(r))
			if !ok {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.unknown_user")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey{}, account)))
		})
	}
}

// Account returns the account resolved by CurrentUser.
func Account(r *http.Request) (state.Account, bool) {
	account, ok := r.Context().Value(accountKey{}).(state.Account)
	return account, ok
}

// RequireRole lets through accounts holding one of the given roles. It must run after
// CurrentUser.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := Account(r)
			if !ok {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.unknown_user")
				return
			}
			for _, allowed := range roles {
				if account.Role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.role")
		})
	}
}

func SetTokenCookies(w http.ResponseWriter, tokens httpx.TokenResponse) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "access_token",
		Value:    tokens.AccessToken,
		MaxAge:   int(tokens.ExpiresIn),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		MaxAge:   int(httpx.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{"access_token", "refresh_token"} {
		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// CookieAuth lets browser clients authenticate with the access_token cookie. When the access
// token is missing or expired, the refresh_token cookie is exchanged for a new pair.
// Requests that already carry an authorization header are left alone.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") != "" {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie("access_token")
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
				r.Header.Del("authorization")
			}

			refreshToken, err := r.Cookie("refresh_token")
			if errors.Is(err, http.ErrNoCookie) {
				// no cookies: the authorization middleware answers
				h.ServeHTTP(w, r)
				return
			}

			resp := httpx.NewResponseBuffer()
			bearerServer.UserCredentials(resp, httpx.GrantRequest(r, url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {refreshToken.Value},
			}))
			if resp.Status() != http.StatusOK {
				ClearTokenCookies(w)
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.cookie.refresh")
				return
			}

			var tokens httpx.TokenResponse
			if err := resp.DecodeJSON(&tokens); err != nil {
				httpx.LogInternalError(w, "auth.cookie.decode", err)
				return
			}
			SetTokenCookies(w, tokens)

			r.Header.Set("authorization", "Bearer "+tokens.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
