package database

import (
	"context"
	"sync"
	"time"

	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/state"
)

type memoryToken struct {
	username, tokenID, refreshTokenID string
	expiration                        time.Time
}

// Memory keeps everything in process. It is used when no database path is configured.
type Memory struct {
	mu     sync.Mutex
	st     state.State
	tokens []memoryToken
}

var (
	_ state.Repository = (*Memory)(nil)
	_ state.TokenStore = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (state.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, nil
}

func (m *Memory) ReplaceStores(_ context.Context, stores []model.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Stores = append([]model.Store{}, stores...)
	return nil
}

func (m *Memory) ReplaceUsers(_ context.Context, users []state.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Users = append([]state.Account{}, users...)
	return nil
}

func (m *Memory) ReplaceSurveys(_ context.Context, surveys []model.SurveyConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Surveys = append([]model.SurveyConfig{}, surveys...)
	return nil
}

func (m *Memory) ReplaceSubmissions(_ context.Context, submissions []model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Submissions = append([]model.Submission{}, submissions...)
	return nil
}

func (m *Memory) StoreToken(_ context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, memoryToken{username, tokenID, refreshTokenID, expiration})
	return nil
}

func (m *Memory) ConsumeToken(_ context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tokens {
		if t.username == username && t.tokenID == tokenID && t.refreshTokenID == refreshTokenID {
			m.tokens = append(m.tokens[:i:i], m.tokens[i+1:]...)
			return t.expiration, nil
		}
	}
	return time.Time{}, ErrTokenNotFound
}

func (m *Memory) RevokeTokens(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0:0]
	for _, t := range m.tokens {
		if t.username != username {
			kept = append(kept, t)
		}
	}
	m.tokens = kept
	return nil
}
