package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mbolis/conect-insights/dashboard"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	Debug         bool
	LogFormat     string
	LogFile       string
	AdminUser     string
	AdminPassword string
	SeedFile      string
	AI            dashboard.AIConfig
}

// environment supplies the flag defaults.
type environment struct {
	Host          string `env:"CONECT_HOST" envDefault:"0.0.0.0"`
	Port          uint   `env:"CONECT_PORT" envDefault:"8080"`
	DBUrl         string `env:"CONECT_DB_URL" envDefault:"conect.sqlite"`
	TokenSecret   string `env:"CONECT_TOKEN_SECRET"`
	TokenTTL      uint   `env:"CONECT_TOKEN_TTL" envDefault:"3600"`
	Debug         bool   `env:"CONECT_DEBUG"`
	LogFormat     string `env:"CONECT_LOG_FORMAT" envDefault:"text"`
	LogFile       string `env:"CONECT_LOG_FILE"`
	AdminUser     string `env:"CONECT_ADMIN_USER" envDefault:"admin"`
	AdminPassword string `env:"CONECT_ADMIN_PASSWORD"`
	SeedFile      string `env:"CONECT_SEED_FILE"`
	AIBaseURL     string `env:"CONECT_AI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	AIAPIKey      string `env:"CONECT_AI_API_KEY"`
	AIModel       string `env:"CONECT_AI_MODEL" envDefault:"gemini-2.5-flash"`
	AILanguage    string `env:"CONECT_AI_LANGUAGE" envDefault:"Brazilian Portuguese"`
}

func ParseFlags() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse reads CONECT_* environment variables, then lets args override them.
func Parse(args []string) (cfg Config, err error) {
	var e environment
	if err = env.Parse(&e); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("conect-insights", flag.ContinueOnError)
	host := fs.String("host", e.Host, "listen host name")
	port := fs.Uint("port", e.Port, "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", e.DBUrl, "path to SQLite3 DB file, empty to keep data in memory")
	fs.StringVar(&cfg.TokenSecret, "token-secret", e.TokenSecret, "secret key for token encryption and decryption")
	ttl := fs.Uint("token-ttl", e.TokenTTL, "access token TTL in seconds")
	fs.BoolVar(&cfg.Debug, "debug", e.Debug, "log at DEBUG level")
	fs.StringVar(&cfg.LogFormat, "log-format", e.LogFormat, "log format: text or json")
	fs.StringVar(&cfg.LogFile, "log-file", e.LogFile, "also write logs to this file, rotated")
	fs.StringVar(&cfg.AdminUser, "admin-user", e.AdminUser, "username of the admin created on first start")
	fs.StringVar(&cfg.AdminPassword, "admin-password", e.AdminPassword, "password of the admin created on first start")
	fs.StringVar(&cfg.SeedFile, "seed-file", e.SeedFile, "YAML file with the initial stores and surveys")
	fs.StringVar(&cfg.AI.BaseURL, "ai-base-url", e.AIBaseURL, "OpenAI-compatible endpoint used for analysis")
	fs.StringVar(&cfg.AI.APIKey, "ai-api-key", e.AIAPIKey, "API key for the analysis endpoint")
	fs.StringVar(&cfg.AI.Model, "ai-model", e.AIModel, "model used for analysis")
	fs.StringVar(&cfg.AI.Language, "ai-language", e.AILanguage, "language of the generated analysis")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(*host, strconv.Itoa(int(*port)))
	cfg.TokenTTL = time.Duration(*ttl) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.LogFormat != "text" && cfg.LogFormat != "json":
		err = fmt.Errorf("invalid -log-format %q", cfg.LogFormat)
	}
	return
}

var reAnyHost = regexp.MustCompile(`^0\.0\.0\.0`)

func (cfg Config) Url() string {
	return "http://" + reAnyHost.ReplaceAllString(cfg.Addr, "localhost")
}
