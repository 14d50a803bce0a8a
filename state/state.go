package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/conect-insights/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("version conflict")
	ErrDuplicate      = errors.New("already exists")
	ErrInvalid        = errors.New("validation failed")
	ErrNoStore        = fmt.Errorf("%w: store could not be determined", ErrInvalid)
	ErrSurveyInactive = fmt.Errorf("%w: survey is not collecting responses", ErrInvalid)
)

// Account is a user together with the credential kept by the persistence layer.
type Account struct {
	model.User
	PasswordHash []byte
}

// State holds the four collections. Reducers return a new State and never modify the
// slices of the one they receive.
type State struct {
	Stores      []model.Store
	Users       []Account
	Surveys     []model.SurveyConfig
	Submissions []model.Submission
}

func (st State) Store(id string) (model.Store, bool) {
	for _, s := range st.Stores {
		if s.ID == id {
			return s, true
		}
	}
	return model.Store{}, false
}

func (st State) Survey(id string) (model.SurveyConfig, bool) {
	for _, s := range st.Surveys {
		if s.ID == id {
			return s, true
		}
	}
	return model.SurveyConfig{}, false
}

func (st State) User(id string) (Account, bool) {
	for _, u := range st.Users {
		if u.ID == id {
			return u, true
		}
	}
	return Account{}, false
}

func (st State) UserByName(username string) (Account, bool) {
	for _, u := range st.Users {
		if u.Username == username {
			return u, true
		}
	}
	return Account{}, false
}

func (st State) ActiveSurveys() []model.SurveyConfig {
	active := []model.SurveyConfig{}
	for _, s := range st.Surveys {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active
}

func (st State) Profiles() []model.User {
	users := make([]model.User, len(st.Users))
	for i, u := range st.Users {
		users[i] = u.User
	}
	return users
}

type Collection uint8

const (
	Stores Collection = 1 << iota
	Users
	Surveys
	Submissions

	All = Stores | Users | Surveys | Submissions
)

// Repository is the persistence boundary: whole collections are loaded at once and each
// write replaces a whole collection.
type Repository interface {
	Load(ctx context.Context) (State, error)
	ReplaceStores(ctx context.Context, stores []model.Store) error
	ReplaceUsers(ctx context.Context, users []Account) error
	ReplaceSurveys(ctx context.Context, surveys []model.SurveyConfig) error
	ReplaceSubmissions(ctx context.Context, submissions []model.Submission) error
}

// TokenStore keeps the refresh token ids issued to each username.
type TokenStore interface {
	StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error
	ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error)
	RevokeTokens(ctx context.Context, username string) error
}

func persist(ctx context.Context, repo Repository, st State, changed Collection) error {
	if changed&Stores != 0 {
		if err := repo.ReplaceStores(ctx, st.Stores); err != nil {
			return fmt.Errorf("replace stores: %w", err)
		}
	}
	if changed&Users != 0 {
		if err := repo.ReplaceUsers(ctx, st.Users); err != nil {
			return fmt.Errorf("replace users: %w", err)
		}
	}
	if changed&Surveys != 0 {
		if err := repo.ReplaceSurveys(ctx, st.Surveys); err != nil {
			return fmt.Errorf("replace surveys: %w", err)
		}
	}
	if changed&Submissions != 0 {
		if err := repo.ReplaceSubmissions(ctx, st.Submissions); err != nil {
			return fmt.Errorf("replace submissions: %w", err)
		}
	}
	return nil
}
