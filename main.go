package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/conect-insights/app"
	"github.com/mbolis/conect-insights/config"
	"github.com/mbolis/conect-insights/dashboard"
	"github.com/mbolis/conect-insights/database"
	"github.com/mbolis/conect-insights/httpx"
	"github.com/mbolis/conect-insights/log"
	"github.com/mbolis/conect-insights/model"
	"github.com/mbolis/conect-insights/routes"
	"github.com/mbolis/conect-insights/state"
)

type backend interface {
	state.Repository
	state.TokenStore
}

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	log.Setup(cfg.LogFormat, cfg.LogFile, cfg.Debug)

	var repo backend
	if cfg.DBUrl == "" {
		log.Info("main.db: no database configured, data is kept in memory")
		repo = database.NewMemory()
	} else {
		db, err := database.Open(cfg.DBUrl)
		if err != nil {
			log.Fatal("main.db.open:", err)
		}
		defer db.Close()
		repo = database.NewRepository(db)
	}

	ctx := context.Background()
	holder, err := state.NewHolder(ctx, repo)
	if err != nil {
		log.Fatal("main.state.load:", err)
	}
	if err := bootstrap(ctx, cfg, holder); err != nil {
		log.Fatal("main.state.bootstrap:", err)
	}

	analyzer := dashboard.NewAIAnalyzer(cfg.AI)
	if cfg.AI.APIKey == "" {
		log.Warnf("main.ai: no API key configured, analysis requests will fail")
	}

	bearerServer := httpx.NewBearerServer(holder, repo, cfg)
	handler := routes.Wire(app.New(cfg, holder, repo, bearerServer, analyzer))

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

// bootstrap seeds empty collections and creates the configured admin on first start.
func bootstrap(ctx context.Context, cfg config.Config, holder *state.Holder) error {
	seed, err := state.LoadSeed(cfg.SeedFile)
	if err != nil {
		return err
	}

	var admin *state.Account
	if cfg.AdminUser != "" && cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin = &state.Account{
			User:         model.User{ID: uuid.NewString(), Username: cfg.AdminUser, Role: model.RoleAdmin},
			PasswordHash: hash,
		}
	}

	now := time.Now().UTC()
	_, changed, err := state.Bootstrap(holder.Snapshot(), seed, admin, now)
	if err != nil {
		return err
	}
	if changed != 0 {
		_, err = holder.Apply(ctx, changed, func(st state.State) (state.State, error) {
			next, _, err := state.Bootstrap(st, seed, admin, now)
			return next, err
		})
		if err != nil {
			return err
		}
		log.Infof("main.state.bootstrap: seeded collections %04b", changed)
	}
	if len(holder.Snapshot().Users) == 0 {
		log.Warnf("main.state.bootstrap: no users, set -admin-password to create %q", cfg.AdminUser)
	}
	return nil
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
