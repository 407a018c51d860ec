// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"
	"testing"

	"github.com/hashicorp/tunes-callback/oauth"
	"github.com/stretchr/testify/require"
)

const testTargetAppURL = "https://tattoostuneswidget.netlify.app/"

// testSuccessFn is a test SuccessResponseFunc
func testSuccessFn(state string, t *oauth.Token, w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login successful"))
}

// testFailFn is a test ErrorResponseFunc
func testFailFn(state string, r *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(ErrorTag(r, e)))
}

// testNewProvider creates a new Provider.  It uses the TestProvider (tp) to
// properly construct the provider's configuration (see testNewConfig).
func testNewProvider(t *testing.T, clientID, clientSecret, redirectURL string, tp *oauth.TestProvider) *oauth.Provider {
	const op = "testNewProvider"
	t.Helper()
	require := require.New(t)
	require.NotEmptyf(clientID, "%s: client id is empty", op)
	require.NotEmptyf(clientSecret, "%s: client secret is empty", op)
	require.NotEmptyf(redirectURL, "%s: redirect URL is empty", op)

	tc := testNewConfig(t, clientID, clientSecret, redirectURL, tp)
	p, err := oauth.NewProvider(tc)
	require.NoError(err)
	t.Cleanup(p.Done)
	return p
}

// testNewConfig creates a new config from the TestProvider. It will set the
// TestProvider's client ID/secret and allowed redirect URI.
func testNewConfig(t *testing.T, clientID, clientSecret, redirectURL string, tp *oauth.TestProvider) *oauth.Config {
	const op = "testNewConfig"
	t.Helper()
	require := require.New(t)

	require.NotEmptyf(clientID, "%s: client id is empty", op)
	require.NotEmptyf(clientSecret, "%s: client secret is empty", op)
	require.NotEmptyf(redirectURL, "%s: redirect URL is empty", op)

	tp.SetClientCreds(clientID, clientSecret)
	tp.SetAllowedRedirectURIs([]string{redirectURL})
	c, err := oauth.NewConfig(
		clientID,
		oauth.ClientSecret(clientSecret),
		redirectURL,
		testTargetAppURL,
		oauth.WithTokenURL(tp.TokenURL()),
		oauth.WithAuthURL(tp.AuthURL()),
		oauth.WithScopes("user-read-private"),
		oauth.WithProviderCA(tp.CACert()),
	)
	require.NoError(err)
	return c
}
