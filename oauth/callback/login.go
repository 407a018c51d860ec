// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/tunes-callback/oauth"
	"github.com/hashicorp/tunes-callback/sdk/id"
)

// Login creates a handler which starts the authorization code flow by
// redirecting the browser to the provider's authorize URL.  A new random
// state is sent with every request, but it's not stored, so AuthCode can't
// verify it.
//
// Supported options:
//	WithLogger
func Login(p *oauth.Provider, opt ...oauth.Option) (http.HandlerFunc, error) {
	const op = "callback.Login"
	if p == nil {
		return nil, fmt.Errorf("%s: provider is nil: %w", op, oauth.ErrInvalidParameter)
	}
	opts := getCallbackOpts(opt...)

	return func(w http.ResponseWriter, req *http.Request) {
		logger := requestLogger(opts.withLogger, req)

		if req.Method != http.MethodGet {
			logger.Warn("login rejected", "error", fmt.Errorf("%s: %s: %w", op, req.Method, oauth.ErrInvalidMethod))
			methodNotAllowed(w)
			return
		}

		state, err := id.New("")
		if err != nil {
			logger.Error("unable to generate state", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		authURL, err := p.AuthURL(state)
		if err != nil {
			logger.Error("unable to create auth URL", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		logger.Debug("redirecting to authorization server")
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, req, authURL, http.StatusFound)
	}, nil
}
