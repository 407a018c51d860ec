// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrInvalidCACert    = errors.New("invalid CA certificate")

	// ErrInvalidMethod is returned when a callback is invoked with a method
	// other than GET.
	ErrInvalidMethod = errors.New("invalid method")

	// ErrMissingCode is returned when the authorization server redirected
	// without an authorization code.
	ErrMissingCode = errors.New("missing authorization code")

	// ErrTokenExchangeFailed covers every failed exchange: network errors,
	// timeouts, non-2xx responses and malformed bodies.
	ErrTokenExchangeFailed = errors.New("token exchange failed")
)

// ExchangeError is returned by Provider.Exchange.  It carries the details of
// the failed exchange, which are for server side diagnostics only and must
// never be returned to the browser.  ExchangeError is always
// ErrTokenExchangeFailed.
type ExchangeError struct {
	// Op is the operation which raised the error.
	Op string

	// StatusCode of the token endpoint response, zero when no response was
	// received.
	StatusCode int

	// ErrorCode and Description are the RFC 6749 section 5.2 "error" and
	// "error_description" of the token endpoint response, if any.
	ErrorCode   string
	Description string

	// Body is the raw token endpoint response body, if any.
	Body string

	// Msg describes the failure.
	Msg string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error satisfies the error interface.  The raw Body is not part of the
// message, nor is a wrapped *oauth2.RetrieveError since its message may
// include the body.
func (e *ExchangeError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", e.Op, ErrTokenExchangeFailed)
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.ErrorCode != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.ErrorCode)
	}
	var retrieveErr *oauth2.RetrieveError
	if e.Wrapped != nil && !errors.As(e.Wrapped, &retrieveErr) {
		msg = fmt.Sprintf("%s: %s", msg, e.Wrapped)
	}
	return msg
}

// Is reports whether target is ErrTokenExchangeFailed.
func (e *ExchangeError) Is(target error) bool {
	return target == ErrTokenExchangeFailed
}

// Unwrap returns the wrapped error.
func (e *ExchangeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}
