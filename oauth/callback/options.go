// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/tunes-callback/oauth"
)

// callbackOptions is the set of available options
type callbackOptions struct {
	withLogger            hclog.Logger
	withMissingCodeStatus int
}

// callbackDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func callbackDefaults() callbackOptions {
	return callbackOptions{
		withLogger:            hclog.NewNullLogger(),
		withMissingCodeStatus: http.StatusFound,
	}
}

// getCallbackOpts gets the defaults and applies the opt overrides passed in.
func getCallbackOpts(opt ...oauth.Option) callbackOptions {
	opts := callbackDefaults()
	oauth.ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}

// WithLogger provides an optional logger for the AuthCode and Login handlers.
func WithLogger(l hclog.Logger) oauth.Option {
	return func(o interface{}) {
		if o, ok := o.(*callbackOptions); ok {
			o.withLogger = l
		}
	}
}

// WithMissingCodeStatus provides an optional status code used by
// FragmentError when the authorization code is missing.  Only
// http.StatusFound (the default) and http.StatusBadRequest are supported;
// anything else is ignored.
func WithMissingCodeStatus(status int) oauth.Option {
	return func(o interface{}) {
		if o, ok := o.(*callbackOptions); ok {
			switch status {
			case http.StatusFound, http.StatusBadRequest:
				o.withMissingCodeStatus = status
			}
		}
	}
}
