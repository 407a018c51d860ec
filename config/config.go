// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package config loads the callback service's configuration from the process
// environment.  It's read once at startup; nothing else in the service reads
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/tunes-callback/oauth"
	"github.com/joho/godotenv"
)

const (
	// EnvFileVar names the optional dotenv file to load before reading the
	// environment.
	EnvFileVar = "ENV_FILE"

	// DefaultEnvFile is loaded when EnvFileVar isn't set.  A missing file is
	// not an error.
	DefaultEnvFile = ".env"

	// DefaultRedirectURI is the local development redirect URI.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"

	// DefaultTargetAppURL is the client application the browser is sent back
	// to.
	DefaultTargetAppURL = "https://tattoostuneswidget.netlify.app/"
)

var ErrInvalidConfig = errors.New("invalid config")

// legacyNames maps the variable names used by earlier deployments to their
// current names.  A current name always wins.
var legacyNames = map[string]string{
	"SPOTIFY_CLIENT_ID":     "CLIENT_ID",
	"SPOTIFY_CLIENT_SECRET": "CLIENT_SECRET",
	"SPOTIFY_REDIRECT_URI":  "REDIRECT_URI",
}

// Env is the service configuration as read from the environment.
type Env struct {
	ClientID          string             `env:"CLIENT_ID,required,notEmpty"`
	ClientSecret      oauth.ClientSecret `env:"CLIENT_SECRET,required,notEmpty"`
	RedirectURI       string             `env:"REDIRECT_URI" envDefault:"http://127.0.0.1:8888/callback"`
	TargetAppURL      string             `env:"TARGET_APP_URL" envDefault:"https://tattoostuneswidget.netlify.app/"`
	TokenURL          string             `env:"TOKEN_URL" envDefault:"https://accounts.spotify.com/api/token"`
	AuthURL           string             `env:"AUTH_URL" envDefault:"https://accounts.spotify.com/authorize"`
	Scopes            []string           `env:"SCOPES" envSeparator:","`
	ProviderCA        string             `env:"PROVIDER_CA"`
	HTTPTimeout       time.Duration      `env:"HTTP_TIMEOUT" envDefault:"10s"`
	MissingCodeStatus int                `env:"MISSING_CODE_STATUS" envDefault:"302"`
	ListenAddr        string             `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8888"`
	LogLevel          string             `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON           bool               `env:"LOG_JSON" envDefault:"false"`
}

// Load reads the dotenv file named by ENV_FILE (default ".env"), if it
// exists, and then parses the environment.  Variables already set in the
// environment are never overridden by the dotenv file.
func Load() (*Env, error) {
	const op = "config.Load"
	envFile := os.Getenv(EnvFileVar)
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: unable to load %s: %w", op, envFile, err)
	}
	return Parse(env.ToMap(os.Environ()))
}

// Parse builds an Env from the environment given as a map of variables.
func Parse(environ map[string]string) (*Env, error) {
	const op = "config.Parse"
	environ = withLegacyNames(environ)

	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("%s: unable to parse environment: %w", op, err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

// Validate checks the settings which the oauth package doesn't.
func (e *Env) Validate() error {
	const op = "Env.Validate"
	var retErr *multierror.Error
	switch e.MissingCodeStatus {
	case http.StatusFound, http.StatusBadRequest:
	default:
		retErr = multierror.Append(retErr, fmt.Errorf("%s: MISSING_CODE_STATUS must be 302 or 400, got %d: %w", op, e.MissingCodeStatus, ErrInvalidConfig))
	}
	if hclog.LevelFromString(e.LogLevel) == hclog.NoLevel {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: LOG_LEVEL %q is unknown: %w", op, e.LogLevel, ErrInvalidConfig))
	}
	if e.ListenAddr == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: LISTEN_ADDR is empty: %w", op, ErrInvalidConfig))
	}
	return retErr.ErrorOrNil()
}

// OAuthConfig returns the validated oauth.Config for the environment.
func (e *Env) OAuthConfig() (*oauth.Config, error) {
	const op = "Env.OAuthConfig"
	c, err := oauth.NewConfig(
		e.ClientID,
		e.ClientSecret,
		e.RedirectURI,
		e.TargetAppURL,
		oauth.WithTokenURL(e.TokenURL),
		oauth.WithAuthURL(e.AuthURL),
		oauth.WithScopes(e.Scopes...),
		oauth.WithProviderCA(e.ProviderCA),
		oauth.WithTimeout(e.HTTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Logger returns the service's root logger.
func (e *Env) Logger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(e.LogLevel),
		JSONFormat: e.LogJSON,
	})
}

func withLegacyNames(environ map[string]string) map[string]string {
	out := make(map[string]string, len(environ))
	for k, v := range environ {
		out[k] = v
	}
	for legacy, current := range legacyNames {
		if _, ok := out[current]; ok {
			continue
		}
		if v, ok := out[legacy]; ok {
			out[current] = v
		}
	}
	return out
}
