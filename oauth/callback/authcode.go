// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/tunes-callback/oauth"
	"github.com/hashicorp/tunes-callback/sdk/id"
)

// AuthCode creates an oauth authorization code callback handler.  Each
// request is handled independently: the method must be GET, the "code" query
// parameter must be present, and it's exchanged for tokens with exactly one
// request to the provider's token endpoint.
//
// The SuccessResponseFunc is used to create a response when callback is
// successful. The ErrorResponseFunc is to create a response when the callback
// fails.  A request with any method other than GET gets a plain text 405 and
// neither func is called.
//
// The "state" parameter is passed to the response funcs as-is; it is not
// validated.
//
// Supported options:
//	WithLogger
func AuthCode(p *oauth.Provider, sFn SuccessResponseFunc, eFn ErrorResponseFunc, opt ...oauth.Option) (http.HandlerFunc, error) {
	const op = "callback.AuthCode"
	switch {
	case p == nil:
		return nil, fmt.Errorf("%s: provider is nil: %w", op, oauth.ErrInvalidParameter)
	case sFn == nil:
		return nil, fmt.Errorf("%s: success response func is nil: %w", op, oauth.ErrInvalidParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error response func is nil: %w", op, oauth.ErrInvalidParameter)
	}
	opts := getCallbackOpts(opt...)

	return func(w http.ResponseWriter, req *http.Request) {
		logger := requestLogger(opts.withLogger, req)

		if req.Method != http.MethodGet {
			logger.Warn("callback rejected", "error", fmt.Errorf("%s: %s: %w", op, req.Method, oauth.ErrInvalidMethod))
			methodNotAllowed(w)
			return
		}

		qv := req.URL.Query()
		reqState := qv.Get("state")
		reqCode := qv.Get("code")
		logger = logger.With("state_present", reqState != "")

		var reqError *AuthenErrorResponse
		if e := qv.Get("error"); e != "" {
			reqError = &AuthenErrorResponse{
				Error:       e,
				Description: qv.Get("error_description"),
				Uri:         qv.Get("error_uri"),
			}
			logger.Warn("authorization server returned an error",
				"error", reqError.Error,
				"error_description", reqError.Description,
				"error_uri", reqError.Uri)
		}

		if reqCode == "" {
			logger.Warn("authorization code is missing from callback")
			eFn(reqState, reqError, fmt.Errorf("%s: %w", op, oauth.ErrMissingCode), w, req)
			return
		}

		tk, err := p.Exchange(req.Context(), reqCode)
		if err != nil {
			logExchangeError(logger, err)
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, err), w, req)
			return
		}
		logger.Info("authorization code exchanged", "token_type", tk.TokenType, "scope", tk.Scope, "expires_in", tk.ExpiresIn)
		sFn(reqState, tk, w, req)
	}, nil
}

// logExchangeError records the details of a failed exchange.  They are never
// returned to the browser.
func logExchangeError(logger hclog.Logger, err error) {
	var exErr *oauth.ExchangeError
	if !errors.As(err, &exErr) {
		logger.Error("token exchange failed", "error", err)
		return
	}
	args := []interface{}{"error", err}
	if exErr.StatusCode != 0 {
		args = append(args, "status", exErr.StatusCode)
	}
	if exErr.ErrorCode != "" {
		args = append(args, "error_code", exErr.ErrorCode, "error_description", exErr.Description)
	}
	if exErr.Body != "" {
		args = append(args, "body", exErr.Body)
	}
	logger.Error("token exchange failed", args...)
}

// requestLogger returns a logger carrying a new request id.
func requestLogger(logger hclog.Logger, req *http.Request) hclog.Logger {
	reqID, err := id.New("req")
	if err != nil {
		logger.Warn("unable to generate request id", "error", err)
		return logger.With("path", req.URL.Path)
	}
	return logger.With("request_id", reqID, "path", req.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
