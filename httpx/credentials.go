package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/conect-insights/config"
	"github.com/mbolis/conect-insights/state"
)

// RefreshTokenTTL bounds how long a refresh token can be exchanged.
const RefreshTokenTTL = 8760 * time.Hour

const (
	ClaimUserID  = "user_id"
	ClaimRole    = "role"
	ClaimStoreID = "store_id"
)

var errCannotRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	holder *state.Holder
	tokens state.TokenStore
	now    func() time.Time
}

func CredentialsVerifier(holder *state.Holder, tokens state.TokenStore) oauth.CredentialsVerifier {
	return &credentialsVerifier{holder, tokens, time.Now}
}

func NewBearerServer(holder *state.Holder, tokens state.TokenStore, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(holder, tokens), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	account, ok := cs.holder.Snapshot().UserByName(username)
	if !ok {
		return errors.New("unknown user")
	}
	return bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password))
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.tokens.StoreToken(context.Background(), credential, tokenID, refreshTokenID, cs.now().Add(RefreshTokenTTL))
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := cs.tokens.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID)
	if err != nil {
		return errCannotRefresh
	}
	if expiration.Before(cs.now()) {
		return errCannotRefresh
	}
	// removed users cannot refresh
	if _, ok := cs.holder.Snapshot().UserByName(credential); !ok {
		return errCannotRefresh
	}
	return nil
}

func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	account, ok := cs.holder.Snapshot().UserByName(credential)
	if !ok {
		return nil, errors.New("unknown user")
	}
	return map[string]string{
		ClaimUserID:  account.ID,
		ClaimRole:    string(account.Role),
		ClaimStoreID: account.AssignedStoreID,
	}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
