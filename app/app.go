package app

import (
	"time"

	"github.com/go-chi/oauth"
	"github.com/google/uuid"

	"github.com/mbolis/conect-insights/config"
	"github.com/mbolis/conect-insights/dashboard"
	"github.com/mbolis/conect-insights/form"
	"github.com/mbolis/conect-insights/state"
)

type App struct {
	*state.Holder
	*oauth.BearerServer
	config.Config

	Tokens   state.TokenStore
	Stations *form.Stations
	Analyzer dashboard.Analyzer

	Now   func() time.Time
	NewID func() string
}

func New(cfg config.Config, holder *state.Holder, tokens state.TokenStore, bearer *oauth.BearerServer, analyzer dashboard.Analyzer) App {
	return App{
		Holder:       holder,
		BearerServer: bearer,
		Config:       cfg,
		Tokens:       tokens,
		Stations:     form.NewStations(),
		Analyzer:     analyzer,
		Now:          func() time.Time { return time.Now().UTC() },
		NewID:        uuid.NewString,
	}
}
