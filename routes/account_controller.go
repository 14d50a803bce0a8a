package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/state"
)

type storeRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func CreateStore(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := storeRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		var store model.Store
		_, err := app.Apply(r.Context(), state.Stores, func(st state.State) (next state.State, err error) {
			next, store, err = state.AddStore(st, app.NewID(), req.Name, req.Address)
			return
		})
		if err != nil {
			httpx.LogError(w, r, "create_store", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, store)
	}
}

func DeleteStore(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeId := chi.URLParam(r, "id")
		_, err := app.Apply(r.Context(), state.Stores, func(st state.State) (state.State, error) {
			return state.RemoveStore(st, storeId)
		})
		if err != nil {
			httpx.LogError(w, r, "delete_store", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"users": app.Snapshot().Profiles(),
		})
	}
}

type userRequest struct {
	Username        string     `json:"username"`
	Password        string     `json:"password"`
	Role            model.Role `json:"role"`
	AssignedStoreID string     `json:"assignedStoreId"`
}

// CreateUser adds an account; the role defaults to MANAGER.
func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := userRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.Role == "" {
			req.Role = model.RoleManager
		}
		if strings.TrimSpace(req.Password) == "" {
			httpx.LogError(w, r, "create_user", fmt.Errorf("%w: password is required", state.ErrInvalid))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "create_user.hash", err)
			return
		}

		account := state.Account{
			User: model.User{
				ID:              app.NewID(),
				Username:        strings.TrimSpace(req.Username),
				Role:            req.Role,
				AssignedStoreID: req.AssignedStoreID,
			},
			PasswordHash: hash,
		}
		_, err = app.Apply(r.Context(), state.Users, func(st state.State) (state.State, error) {
			return state.AddUser(st, account)
		})
		if err != nil {
			httpx.LogError(w, r, "create_user", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, account.User)
	}
}

// DeleteUser removes the account and revokes its refresh tokens. Admins cannot remove themselves.
func DeleteUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := chi.URLParam(r, "id")
		if me, ok := currentAccount(r); ok && me.ID == userId {
			httpx.LogError(w, r, "delete_user.self", fmt.Errorf("%w: cannot remove the current user", state.ErrInvalid))
			return
		}

		var removed state.Account
		_, err := app.Apply(r.Context(), state.Users, func(st state.State) (next state.State, err error) {
			next, removed, err = state.RemoveUser(st, userId)
			return
		})
		if err != nil {
			httpx.LogError(w, r, "delete_user", err)
			return
		}

		if err := app.Tokens.RevokeTokens(r.Context(), removed.Username); err != nil {
			httpx.LogInternalError(w, "delete_user.revoke", err)
			return
		}
		app.Stations.Delete(removed.Username)
		w.WriteHeader(http.StatusNoContent)
	}
}
