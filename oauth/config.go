// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/tunes-callback/oauth/internal/strutils"
	sdkHttp "github.com/hashicorp/tunes-callback/sdk/http"
)

const (
	// DefaultTokenURL is the Spotify Accounts token endpoint.
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultAuthURL is the Spotify Accounts authorize endpoint.
	DefaultAuthURL = "https://accounts.spotify.com/authorize"

	// DefaultTimeout bounds the outbound token exchange.
	DefaultTimeout = 10 * time.Second
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the configuration for the authorization code callback.
// A Config is read-only once created and is safe to share across requests.
type Config struct {
	// ClientID is the client id registered with the authorization server.
	ClientID string

	// ClientSecret is the client secret registered with the authorization
	// server.
	ClientSecret ClientSecret

	// RedirectURL must match, byte for byte, the redirect URI registered with
	// the authorization server and the one used in the authorize request.
	RedirectURL string

	// TargetAppURL is the base URL of the client application.  Tokens, or an
	// error tag, are appended to it as URL fragment parameters.
	TargetAppURL string

	// TokenURL is the authorization server's token endpoint.
	TokenURL string

	// AuthURL is the authorization server's authorize endpoint.
	AuthURL string

	// Scopes is an optional list of scopes requested by the authorize URL.
	Scopes []string

	// ProviderCA is an optional CA cert to use when sending requests to the
	// token endpoint.
	ProviderCA string

	// Timeout bounds the outbound token exchange.
	Timeout time.Duration
}

// NewConfig composes a new config for a provider.
// Supported options:
//	WithTokenURL
//	WithAuthURL
//	WithScopes
//	WithProviderCA
//	WithTimeout
func NewConfig(clientID string, clientSecret ClientSecret, redirectURL, targetAppURL string, opt ...Option) (*Config, error) {
	const op = "NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		TargetAppURL: targetAppURL,
		TokenURL:     opts.withTokenURL,
		AuthURL:      opts.withAuthURL,
		Scopes:       strutils.RemoveDuplicatesStable(opts.withScopes, false),
		ProviderCA:   opts.withProviderCA,
		Timeout:      opts.withTimeout,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the provider configuration.  Every problem found is reported in
// the returned error, not just the first one.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	var retErr *multierror.Error
	if c.ClientID == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: client secret is empty: %w", op, ErrInvalidParameter))
	}
	if err := validateURL("redirect URL", c.RedirectURL); err != nil {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
	}
	if err := validateURL("target app URL", c.TargetAppURL); err != nil {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
	}
	if err := validateURL("token URL", c.TokenURL); err != nil {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
	}
	if err := validateURL("auth URL", c.AuthURL); err != nil {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
	}
	if c.Timeout <= 0 {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: timeout %s must be greater than zero: %w", op, c.Timeout, ErrInvalidParameter))
	}
	return retErr.ErrorOrNil()
}

// validateURL checks that u is an absolute http or https URL.
func validateURL(name, u string) error {
	if u == "" {
		return fmt.Errorf("%s is empty: %w", name, ErrInvalidParameter)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("%s %q is invalid: %s: %w", name, u, err, ErrInvalidParameter)
	}
	if !strutils.StrListContains([]string{"https", "http"}, parsed.Scheme) {
		return fmt.Errorf("%s %q scheme is not http or https: %w", name, u, ErrInvalidParameter)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s %q has no host: %w", name, u, ErrInvalidParameter)
	}
	return nil
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured.  The client's requests are bounded by the config's
// Timeout.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	client, err := sdkHttp.NewClient(c.ProviderCA, c.Timeout)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// configOptions is the set of available options
type configOptions struct {
	withTokenURL   string
	withAuthURL    string
	withScopes     []string
	withProviderCA string
	withTimeout    time.Duration
}

// configDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func configDefaults() configOptions {
	return configOptions{
		withTokenURL: DefaultTokenURL,
		withAuthURL:  DefaultAuthURL,
		withTimeout:  DefaultTimeout,
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTokenURL provides an optional token endpoint for the provider's config
func WithTokenURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTokenURL = u
		}
	}
}

// WithAuthURL provides an optional authorize endpoint for the provider's
// config
func WithAuthURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAuthURL = u
		}
	}
}

// WithScopes provides an optional list of scopes for the provider's config
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithProviderCA provides an optional CA cert for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithTimeout provides an optional outbound request timeout for the
// provider's config
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTimeout = d
		}
	}
}
