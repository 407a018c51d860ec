// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	sdkHttp "github.com/hashicorp/tunes-callback/sdk/http"
	"golang.org/x/oauth2"
)

// Provider exchanges authorization codes with the authorization server
// configured.  A Provider holds no per-request state and is safe for
// concurrent use.
type Provider struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// NewProvider creates and initializes a Provider.  Unlike an OIDC provider no
// discovery request is made; the endpoints come from the config.
//
// Supported options:
//	WithLogger
//
// See Provider.Done() which should be called to release provider resources.
func NewProvider(c *Config, opt ...Option) (*Provider, error) {
	const op = "NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: provider config is invalid: %w", op, err)
	}
	opts := getProviderOpts(opt...)

	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	return &Provider{
		config: c,
		client: client,
		logger: opts.withLogger,
	}, nil
}

// Config returns the provider's config.
func (p *Provider) Config() *Config {
	return p.config
}

// Done with the provider's pooled connections.
func (p *Provider) Done() {
	if p == nil || p.client == nil {
		return
	}
	p.client.CloseIdleConnections()
}

// AuthURL will generate a URL the caller can use to kick off an authorization
// code flow with the authorization server.  The state is returned unchanged
// by the authorization server in its redirect to the callback.
func (p *Provider) AuthURL(state string) (string, error) {
	const op = "Provider.AuthURL"
	if state == "" {
		return "", fmt.Errorf("%s: state is empty: %w", op, ErrInvalidParameter)
	}
	return p.oauth2Config().AuthCodeURL(state), nil
}

// Exchange will request tokens from the token endpoint using the
// authorizationCode received in a successful authorization response.  It
// makes exactly one outbound request, bounded by the config's Timeout and by
// ctx.
//
// Every failure (network error, timeout, non-2xx response, malformed or
// incomplete body) is returned as an *ExchangeError, which is
// ErrTokenExchangeFailed.  The returned Token always carries an access_token,
// a refresh_token and expires_in.
func (p *Provider) Exchange(ctx context.Context, authorizationCode string) (*Token, error) {
	const op = "Provider.Exchange"
	if authorizationCode == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCode)
	}
	p.logger.Debug("exchanging authorization code", "token_url", p.config.TokenURL)

	oauth2Token, err := p.oauth2Config().Exchange(sdkHttp.ClientContext(ctx, p.client), authorizationCode)
	if err != nil {
		return nil, newExchangeError(op, err)
	}

	switch {
	case oauth2Token.AccessToken == "":
		return nil, &ExchangeError{Op: op, Msg: "access_token is missing from response"}
	case oauth2Token.RefreshToken == "":
		return nil, &ExchangeError{Op: op, Msg: "refresh_token is missing from response"}
	}
	expiresIn, ok := expiresIn(oauth2Token)
	if !ok {
		return nil, &ExchangeError{Op: op, Msg: "expires_in is missing or invalid in response"}
	}

	tk := &Token{
		AccessToken:  AccessToken(oauth2Token.AccessToken),
		RefreshToken: RefreshToken(oauth2Token.RefreshToken),
		ExpiresIn:    expiresIn,
		TokenType:    oauth2Token.TokenType,
	}
	if scope, ok := oauth2Token.Extra("scope").(string); ok {
		tk.Scope = scope
	}
	return tk, nil
}

func (p *Provider) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: string(p.config.ClientSecret),
		RedirectURL:  p.config.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.config.AuthURL,
			TokenURL: p.config.TokenURL,
			// credentials are sent as "Authorization: Basic", never in the body
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		Scopes: p.config.Scopes,
	}
}

// newExchangeError converts the errors returned by oauth2.Config.Exchange.
func newExchangeError(op string, err error) *ExchangeError {
	e := &ExchangeError{
		Op:      op,
		Msg:     "unable to exchange authorization code",
		Wrapped: err,
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			e.StatusCode = retrieveErr.Response.StatusCode
		}
		e.ErrorCode = retrieveErr.ErrorCode
		e.Description = retrieveErr.ErrorDescription
		e.Body = strings.TrimSpace(string(retrieveErr.Body))
	}
	return e
}

// expiresIn returns the raw expires_in of the token response.  The oauth2
// package only exposes it as an absolute Expiry, so it's read from the raw
// response fields.
func expiresIn(t *oauth2.Token) (int64, bool) {
	var (
		v   int64
		err error
	)
	switch raw := t.Extra("expires_in").(type) {
	case float64:
		v = int64(raw)
	case int64:
		v = raw
	case json.Number:
		v, err = raw.Int64()
	case string:
		v, err = strconv.ParseInt(raw, 10, 64)
	default:
		return 0, false
	}
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// providerOptions is the set of available options
type providerOptions struct {
	withLogger hclog.Logger
}

// providerDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func providerDefaults() providerOptions {
	return providerOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

// getProviderOpts gets the defaults and applies the opt overrides passed in.
func getProviderOpts(opt ...Option) providerOptions {
	opts := providerDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}

// WithLogger provides an optional logger for the provider
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withLogger = l
		}
	}
}
