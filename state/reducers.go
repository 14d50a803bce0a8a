package state

import (
	"fmt"
	"strings"

	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/survey"
)

func AddStore(st State, id, name, address string) (State, model.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return st, model.Store{}, fmt.Errorf("%w: store name is required", ErrInvalid)
	}
	store := model.Store{ID: id, Name: name, Address: strings.TrimSpace(address)}

	stores := make([]model.Store, 0, len(st.Stores)+1)
	stores = append(stores, st.Stores...)
	st.Stores = append(stores, store)
	return st, store, nil
}

// RemoveStore drops the store only; users and submissions keep their dangling reference.
func RemoveStore(st State, id string) (State, error) {
	stores := make([]model.Store, 0, len(st.Stores))
	for _, s := range st.Stores {
		if s.ID != id {
			stores = append(stores, s)
		}
	}
	if len(stores) == len(st.Stores) {
		return st, fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	st.Stores = stores
	return st, nil
}

func AddUser(st State, account Account) (State, error) {
	account.Username = strings.TrimSpace(account.Username)
	switch {
	case account.Username == "":
		return st, fmt.Errorf("%w: username is required", ErrInvalid)
	case len(account.PasswordHash) == 0:
		return st, fmt.Errorf("%w: password is required", ErrInvalid)
	case !account.Role.Valid():
		return st, fmt.Errorf("%w: unknown role %q", ErrInvalid, account.Role)
	}
	if account.Role == model.RoleManager {
		if account.AssignedStoreID == "" {
			return st, fmt.Errorf("%w: managers need an assigned store", ErrInvalid)
		}
		if _, ok := st.Store(account.AssignedStoreID); !ok {
			return st, fmt.Errorf("%w: unknown store %s", ErrInvalid, account.AssignedStoreID)
		}
	}
	if _, ok := st.UserByName(account.Username); ok {
		return st, fmt.Errorf("user %s: %w", account.Username, ErrDuplicate)
	}

	users := make([]Account, 0, len(st.Users)+1)
	users = append(users, st.Users...)
	st.Users = append(users, account)
	return st, nil
}

func RemoveUser(st State, id string) (State, Account, error) {
	var removed Account
	users := make([]Account, 0, len(st.Users))
	for _, u := range st.Users {
		if u.ID == id {
			removed = u
			continue
		}
		users = append(users, u)
	}
	if len(users) == len(st.Users) {
		return st, Account{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	st.Users = users
	return st, removed, nil
}

func AddSurvey(st State, s model.SurveyConfig) (State, error) {
	if _, ok := st.Survey(s.ID); ok {
		return st, fmt.Errorf("survey %s: %w", s.ID, ErrDuplicate)
	}
	surveys := make([]model.SurveyConfig, 0, len(st.Surveys)+1)
	surveys = append(surveys, st.Surveys...)
	st.Surveys = append(surveys, s)
	return st, nil
}

// EditSurvey replaces the survey with the result of edit and bumps its version.
func EditSurvey(st State, id string, edit func(model.SurveyConfig) (model.SurveyConfig, error)) (State, model.SurveyConfig, error) {
	for i, s := range st.Surveys {
		if s.ID != id {
			continue
		}
		edited, err := edit(s)
		if err != nil {
			return st, s, err
		}
		edited.ID = s.ID
		edited.CreatedAt = s.CreatedAt
		edited.Version = s.Version + 1

		surveys := make([]model.SurveyConfig, len(st.Surveys))
		copy(surveys, st.Surveys)
		surveys[i] = edited
		st.Surveys = surveys
		return st, edited, nil
	}
	return st, model.SurveyConfig{}, fmt.Errorf("survey %s: %w", id, ErrNotFound)
}

// ReplaceSurvey swaps in a whole survey when the caller saw the current version.
func ReplaceSurvey(st State, replacement model.SurveyConfig) (State, model.SurveyConfig, error) {
	if err := survey.Validate(replacement); err != nil {
		return st, model.SurveyConfig{}, err
	}
	return EditSurvey(st, replacement.ID, func(current model.SurveyConfig) (model.SurveyConfig, error) {
		if current.Version != replacement.Version {
			return current, fmt.Errorf("survey %s: %w", current.ID, ErrConflict)
		}
		if replacement.Questions == nil {
			replacement.Questions = []model.SurveyQuestion{}
		}
		return replacement, nil
	})
}

func DeleteSurvey(st State, id string) (State, error) {
	surveys := make([]model.SurveyConfig, 0, len(st.Surveys))
	for _, s := range st.Surveys {
		if s.ID != id {
			surveys = append(surveys, s)
		}
	}
	if len(surveys) == len(st.Surveys) {
		return st, fmt.Errorf("survey %s: %w", id, ErrNotFound)
	}
	st.Surveys = surveys
	return st, nil
}
