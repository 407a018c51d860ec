// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/tunes-callback/oauth"
)

const (
	// ErrorTagMissingCode is sent to the client application when the
	// authorization server redirected without a code (for example, the user
	// denied consent).
	ErrorTagMissingCode = "missing_code"

	// ErrorTagTokenExchangeFailed is sent to the client application for every
	// failed token exchange.
	ErrorTagTokenExchangeFailed = "token_exchange_failed"
)

// SuccessResponseFunc is used by Callbacks to create a http response when the
// callback is successful.
//
// The function state parameter will contain the state that was returned as
// part of a successful authorization response. The oauth.Token is the result
// of a successful token exchange with the authorization server.  The function
// should use the http.ResponseWriter to send back whatever content (headers,
// redirect, etc) it wishes to the client that originated the flow.
type SuccessResponseFunc func(state string, t *oauth.Token, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by Callbacks to create a http response when the
// callback fails.
//
// The function receives the state returned as part of the authorization
// response.  It also gets parameters for the authorization error response
// and/or the callback error raised while processing the request.  The error
// is either oauth.ErrMissingCode or oauth.ErrTokenExchangeFailed.  The function
// should use the http.ResponseWriter to send back whatever content it wishes
// to the client that originated the flow, but it must not send back the
// details of the error.
type ErrorResponseFunc func(state string, respErr *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request)

// AuthenErrorResponse represents Oauth2 error responses.  See:
// https://www.rfc-editor.org/rfc/rfc6749#section-4.1.2.1
type AuthenErrorResponse struct {
	Error       string
	Description string
	Uri         string
}

// FragmentSuccess returns a SuccessResponseFunc which redirects (302) the
// browser to targetAppURL with the tokens as fragment parameters:
//
//	<targetAppURL>#access_token=<a>&refresh_token=<r>&expires_in=<seconds>
func FragmentSuccess(targetAppURL string) SuccessResponseFunc {
	return func(_ string, t *oauth.Token, w http.ResponseWriter, _ *http.Request) {
		loc := FragmentURL(targetAppURL,
			"access_token", string(t.AccessToken),
			"refresh_token", string(t.RefreshToken),
			"expires_in", strconv.FormatInt(t.ExpiresIn, 10),
		)
		writeRedirect(w, loc, http.StatusFound)
	}
}

// FragmentError returns an ErrorResponseFunc which redirects the browser to
// targetAppURL with an opaque error tag as the only fragment parameter:
//
//	<targetAppURL>#error=missing_code
//	<targetAppURL>#error=token_exchange_failed
//
// Failed exchanges always use 302.  A missing code uses 302 unless
// WithMissingCodeStatus says otherwise.
//
// Supported options:
//	WithMissingCodeStatus
func FragmentError(targetAppURL string, opt ...oauth.Option) ErrorResponseFunc {
	opts := getCallbackOpts(opt...)
	return func(_ string, r *AuthenErrorResponse, e error, w http.ResponseWriter, _ *http.Request) {
		tag := ErrorTag(r, e)
		status := http.StatusFound
		if tag == ErrorTagMissingCode {
			status = opts.withMissingCodeStatus
		}
		writeRedirect(w, FragmentURL(targetAppURL, "error", tag), status)
	}
}

// ErrorTag maps a callback failure to the opaque tag the client application
// receives.
func ErrorTag(r *AuthenErrorResponse, e error) string {
	switch {
	case errors.Is(e, oauth.ErrMissingCode):
		return ErrorTagMissingCode
	case e == nil && r != nil:
		return ErrorTagMissingCode
	default:
		return ErrorTagTokenExchangeFailed
	}
}

// FragmentURL returns base with its fragment replaced by the key/value pairs
// given, in order.  Values are query escaped.  A trailing key without a value
// gets an empty one.
func FragmentURL(base string, pairs ...string) string {
	base, _, _ = strings.Cut(base, "#")
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteByte('#')
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(pairs[i]))
		sb.WriteByte('=')
		if i+1 < len(pairs) {
			sb.WriteString(url.QueryEscape(pairs[i+1]))
		}
	}
	return sb.String()
}

// writeRedirect writes a redirect without a body.  http.Redirect isn't used
// since it echoes the location in an html body.
func writeRedirect(w http.ResponseWriter, location string, status int) {
	h := w.Header()
	h.Set("Location", location)
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(status)
}
