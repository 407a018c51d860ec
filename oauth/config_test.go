// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSecret_String(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert := assert.New(t)
		const want = RedactedClientSecret
		secret := ClientSecret("bob's phone number")
		assert.Equalf(want, secret.String(), "ClientSecret.String() = %v, want %v", secret.String(), want)
	})
}

func TestClientSecret_MarshalJSON(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		want := fmt.Sprintf(`"%s"`, RedactedClientSecret)
		secret := ClientSecret("bob's phone number")
		got, err := secret.MarshalJSON()
		require.NoError(err)
		assert.Equalf([]byte(want), got, "ClientSecret.MarshalJSON() = %s, want %s", got, want)
	})
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	const (
		clientID     = "test-client-id"
		clientSecret = ClientSecret("test-client-secret")
		redirect     = "http://127.0.0.1:8888/callback"
		target       = "https://tattoostuneswidget.netlify.app/"
	)
	tp := StartTestProvider(t)

	type args struct {
		clientID     string
		clientSecret ClientSecret
		redirectURL  string
		targetAppURL string
		opt          []Option
	}
	tests := []struct {
		name      string
		args      args
		want      *Config
		wantErr   bool
		wantIsErr error
		wantErrs  int
	}{
		{
			name: "defaults",
			args: args{
				clientID:     clientID,
				clientSecret: clientSecret,
				redirectURL:  redirect,
				targetAppURL: target,
			},
			want: &Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  redirect,
				TargetAppURL: target,
				TokenURL:     DefaultTokenURL,
				AuthURL:      DefaultAuthURL,
				Scopes:       []string{},
				Timeout:      DefaultTimeout,
			},
		},
		{
			name: "all-options",
			args: args{
				clientID:     clientID,
				clientSecret: clientSecret,
				redirectURL:  redirect,
				targetAppURL: target,
				opt: []Option{
					WithTokenURL(tp.TokenURL()),
					WithAuthURL(tp.AuthURL()),
					WithScopes("user-read-private", "user-read-email", "user-read-private"),
					WithProviderCA(tp.CACert()),
					WithTimeout(2 * time.Second),
				},
			},
			want: &Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  redirect,
				TargetAppURL: target,
				TokenURL:     tp.TokenURL(),
				AuthURL:      tp.AuthURL(),
				Scopes:       []string{"user-read-private", "user-read-email"},
				ProviderCA:   tp.CACert(),
				Timeout:      2 * time.Second,
			},
		},
		{
			name: "missing-client-id",
			args: args{
				clientSecret: clientSecret,
				redirectURL:  redirect,
				targetAppURL: target,
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
			wantErrs:  1,
		},
		{
			name: "missing-client-secret",
			args: args{
				clientID:     clientID,
				redirectURL:  redirect,
				targetAppURL: target,
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
			wantErrs:  1,
		},
		{
			name: "relative-redirect",
			args: args{
				clientID:     clientID,
				clientSecret: clientSecret,
				redirectURL:  "/callback",
				targetAppURL: target,
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
			wantErrs:  1,
		},
		{
			name: "bad-target-scheme",
			args: args{
				clientID:     clientID,
				clientSecret: clientSecret,
				redirectURL:  redirect,
				targetAppURL: "ftp://tattoostuneswidget.netlify.app/",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
			wantErrs:  1,
		},
		{
			name: "unparsable-token-url",
			args: args{
				clientID:     clientID,
				clientSecret: clientSecret,
				redirectURL:  redirect,
				targetAppURL: target,
				opt:          []Option{WithTokenURL("https://bad host/api/token")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
			wantErrs:  1,
		},
		{
			name: "zero-timeout",
			args: args{
				clientID:     clientID,
				clientSecret: clientSecret,
				redirectURL:  redirect,
				targetAppURL: target,
				opt:          []Option{WithTimeout(0)},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
			wantErrs:  1,
		},
		{
			name:      "everything-missing",
			args:      args{opt: []Option{WithTokenURL(""), WithAuthURL(""), WithTimeout(-1)}},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
			wantErrs:  7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.args.clientID, tt.args.clientSecret, tt.args.redirectURL, tt.args.targetAppURL, tt.args.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				var merr *multierror.Error
				require.True(errors.As(err, &merr))
				assert.Len(merr.Errors, tt.wantErrs)
				assert.NotContains(err.Error(), string(clientSecret))
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil", func(t *testing.T) {
		assert := assert.New(t)
		var c *Config
		err := c.Validate()
		assert.Truef(errors.Is(err, ErrNilParameter), "wanted \"%s\" but got \"%s\"", ErrNilParameter, err)
	})
}

func TestConfig_redacted(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	const secret = "super-secret-value"
	c, err := NewConfig("client-id", ClientSecret(secret), "http://127.0.0.1:8888/callback", "https://tattoostuneswidget.netlify.app/")
	require.NoError(err)

	j, err := json.Marshal(c)
	require.NoError(err)
	assert.NotContains(string(j), secret)
	assert.NotContains(fmt.Sprintf("%v %+v", c, *c), secret)
}

func TestConfig_HTTPClient(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		caPEM     string
		wantErr   bool
		wantIsErr error
	}{
		{"valid", StartTestProvider(t).CACert(), false, nil},
		{"no-ca", "", false, nil},
		{"bad-ca", "bad-ca", true, ErrInvalidCACert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			c := &Config{ProviderCA: tt.caPEM, Timeout: time.Second}
			got, err := c.HTTPClient()
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(time.Second, got.Timeout)
		})
	}
}
