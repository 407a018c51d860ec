// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/tunes-callback/oauth/internal/strutils"
	"github.com/stretchr/testify/require"
)

const (
	// TestTokenPath is the path of the TestProvider's token endpoint.
	TestTokenPath = "/api/token"

	// TestAuthPath is the path of the TestProvider's authorize endpoint.
	TestAuthPath = "/authorize"
)

// TestTokenRequest is what the TestProvider's token endpoint received on its
// most recent request.
type TestTokenRequest struct {
	Method        string
	ContentType   string
	Authorization string
	Form          url.Values
}

// TestProvider is a local TLS server that plays the role of the
// authorization server (authorize and token endpoints), which makes writing
// tests much easier.  Authorization codes it issues are single-use, just like
// the real thing.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	mu                  sync.Mutex
	clientID            string
	clientSecret        string
	allowedRedirectURIs []string
	expectedAuthCode    string
	usedAuthCodes       map[string]struct{}

	replyAccessToken  string
	replyRefreshToken string
	replyExpiresIn    int64
	replyScope        string
	omitRefreshToken  bool
	omitExpiresIn     bool
	malformedReply    bool
	disableToken      bool
	tokenDelay        time.Duration

	lastTokenRequest *TestTokenRequest
	tokenRequests    int
}

// StartTestProvider creates a disposable TestProvider.  It's stopped when
// the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		allowedRedirectURIs: []string{
			"https://example.com/callback",
		},
		usedAuthCodes:     map[string]struct{}{},
		replyAccessToken:  "test-access-token",
		replyRefreshToken: "test-refresh-token",
		replyExpiresIn:    3600,
		replyScope:        "user-read-private user-read-email",
	}

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// SetClientCreds is for configuring the client credentials required by the
// token endpoint.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetExpectedAuthCode configures the auth code to return from the authorize
// endpoint and the allowed auth code for the token endpoint.  Setting a code
// makes it unused again.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
	delete(p.usedAuthCodes, code)
}

// SetAllowedRedirectURIs allows you to configure the allowed redirect URIs.
// If not configured a sample of "https://example.com/callback" is used.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetReplyTokens configures the tokens returned by the token endpoint.
func (p *TestProvider) SetReplyTokens(accessToken, refreshToken string, expiresIn int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyAccessToken = accessToken
	p.replyRefreshToken = refreshToken
	p.replyExpiresIn = expiresIn
}

// SetOmitRefreshToken forces an error state where the token endpoint does
// not return a refresh_token.
func (p *TestProvider) SetOmitRefreshToken(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitRefreshToken = omit
}

// SetOmitExpiresIn forces an error state where the token endpoint does not
// return expires_in.
func (p *TestProvider) SetOmitExpiresIn(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitExpiresIn = omit
}

// SetMalformedReply makes the token endpoint reply 200 with a body that
// isn't valid JSON.
func (p *TestProvider) SetMalformedReply(malformed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.malformedReply = malformed
}

// SetDisableToken makes the token endpoint reply 503.
func (p *TestProvider) SetDisableToken(disable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableToken = disable
}

// SetTokenDelay delays every token endpoint reply by d.
func (p *TestProvider) SetTokenDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenDelay = d
}

// LastTokenRequest returns a copy of the most recent token endpoint request,
// or nil if there hasn't been one.
func (p *TestProvider) LastTokenRequest() *TestTokenRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastTokenRequest == nil {
		return nil
	}
	cp := *p.lastTokenRequest
	cp.Form = url.Values{}
	for k, v := range p.lastTokenRequest.Form {
		cp.Form[k] = append([]string(nil), v...)
	}
	return &cp
}

// TokenRequests returns the number of requests the token endpoint received.
func (p *TestProvider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// TokenURL returns the test provider's token endpoint.
func (p *TestProvider) TokenURL() string { return p.Addr() + TestTokenPath }

// AuthURL returns the test provider's authorize endpoint.
func (p *TestProvider) AuthURL() string { return p.Addr() + TestAuthPath }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns an http.Client for the test provider. The returned client
// uses a pooled transport that trusts the test provider's CA.
func (p *TestProvider) HTTPClient() *http.Client {
	return p.httpServer.Client()
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()

	redirectURI := qv.Get("redirect_uri") +
		"?state=" + url.QueryEscape(qv.Get("state")) +
		"&error=" + url.QueryEscape(errorCode)

	if errorMessage != "" {
		redirectURI += "&error_description=" + url.QueryEscape(errorMessage)
	}

	http.Redirect(w, req, redirectURI, http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case TestAuthPath:
		p.serveAuth(w, req)
	case TestTokenPath:
		p.serveToken(w, req)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *TestProvider) serveAuth(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	qv := req.URL.Query()

	redirectURI := qv.Get("redirect_uri")
	if !strutils.StrListContains(p.allowedRedirectURIs, redirectURI) {
		// never redirect to an unknown URI
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch {
	case qv.Get("response_type") != "code":
		p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
		return
	case qv.Get("client_id") != p.clientID:
		p.writeAuthErrorResponse(w, req, "invalid_client", "")
		return
	case p.expectedAuthCode == "":
		p.writeAuthErrorResponse(w, req, "access_denied", "")
		return
	}

	redirectURI += "?code=" + url.QueryEscape(p.expectedAuthCode)
	if state := qv.Get("state"); state != "" {
		redirectURI += "&state=" + url.QueryEscape(state)
	}
	http.Redirect(w, req, redirectURI, http.StatusFound)
}

func (p *TestProvider) serveToken(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	delay := p.tokenDelay
	p.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tokenRequests++
	_ = req.ParseForm()
	p.lastTokenRequest = &TestTokenRequest{
		Method:        req.Method,
		ContentType:   req.Header.Get("Content-Type"),
		Authorization: req.Header.Get("Authorization"),
		Form:          req.PostForm,
	}

	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if p.disableToken {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	id, secret, ok := req.BasicAuth()
	if ok {
		// credentials are form-encoded before being base64 encoded
		id, _ = url.QueryUnescape(id)
		secret, _ = url.QueryUnescape(secret)
	}
	code := req.PostForm.Get("code")
	switch {
	case !strings.HasPrefix(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded"):
		_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "unsupported content type")
		return
	case !ok || id != p.clientID || secret != p.clientSecret:
		_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_client", "Invalid client")
		return
	case req.PostForm.Get("grant_type") != "authorization_code":
		_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "unsupported_grant_type", "bad grant_type")
		return
	case !strutils.StrListContains(p.allowedRedirectURIs, req.PostForm.Get("redirect_uri")):
		_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "Invalid redirect URI")
		return
	case p.expectedAuthCode == "" || code != p.expectedAuthCode:
		_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "Invalid authorization code")
		return
	}
	if _, used := p.usedAuthCodes[code]; used {
		_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "Authorization code expired")
		return
	}
	p.usedAuthCodes[code] = struct{}{}

	w.Header().Set("Content-Type", "application/json")
	if p.malformedReply {
		_, _ = w.Write([]byte(`{"access_token": "not-json`))
		return
	}

	reply := map[string]interface{}{
		"access_token":  p.replyAccessToken,
		"token_type":    "Bearer",
		"scope":         p.replyScope,
		"refresh_token": p.replyRefreshToken,
		"expires_in":    p.replyExpiresIn,
	}
	if p.omitRefreshToken {
		delete(reply, "refresh_token")
	}
	if p.omitExpiresIn {
		delete(reply, "expires_in")
	}
	_ = p.writeJSON(w, reply)
}
