// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command tunes-callback serves the OAuth2 redirect URI for the tunes widget.
// It exchanges the authorization code for tokens and sends the browser back to
// the widget with the tokens in the URL fragment.
//
// Configuration is read from the environment (and an optional .env file):
//
//	CLIENT_ID, CLIENT_SECRET   required
//	REDIRECT_URI               default http://127.0.0.1:8888/callback
//	TARGET_APP_URL             default https://tattoostuneswidget.netlify.app/
//	LISTEN_ADDR                default 127.0.0.1:8888
//
// See the config package for the rest.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/tunes-callback/config"
	"github.com/hashicorp/tunes-callback/oauth"
	"github.com/hashicorp/tunes-callback/oauth/callback"
)

const (
	callbackPath = "/callback"
	loginPath    = "/login"
	healthPath   = "/healthz"

	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	const op = "main.run"
	e, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger := e.Logger("tunes-callback")

	c, err := e.OAuthConfig()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p, err := oauth.NewProvider(c, oauth.WithLogger(logger.Named("provider")))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer p.Done()

	mux, err := newMux(p, e.MissingCodeStatus, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	listener, err := net.Listen("tcp", e.ListenAddr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return serve(ctx, listener, mux, logger)
}

// newMux routes the callback, login and health endpoints.
func newMux(p *oauth.Provider, missingCodeStatus int, logger hclog.Logger) (*http.ServeMux, error) {
	const op = "main.newMux"
	target := p.Config().TargetAppURL

	cb, err := callback.AuthCode(
		p,
		callback.FragmentSuccess(target),
		callback.FragmentError(target, callback.WithMissingCodeStatus(missingCodeStatus)),
		callback.WithLogger(logger.Named("callback")),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	login, err := callback.Login(p, callback.WithLogger(logger.Named("login")))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, cb)
	mux.HandleFunc(loginPath, login)
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusNoContent)
	})
	return mux, nil
}

// serve runs the server on l until ctx is done, then shuts it down.
func serve(ctx context.Context, l net.Listener, h http.Handler, logger hclog.Logger) error {
	const op = "main.serve"
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// the handler waits on the token exchange
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog: logger.StandardLogger(&hclog.StandardLoggerOptions{
			InferLevels: true,
		}),
	}

	srvCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", l.Addr().String())
		srvCh <- srv.Serve(l)
	}()

	select {
	case err := <-srvCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: server closed: %w", op, err)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: shutdown: %w", op, err)
		}
		return nil
	}
}
