// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package tunescallback_test

import (
	"net/http"

	"github.com/hashicorp/tunes-callback/oauth"
	"github.com/hashicorp/tunes-callback/oauth/callback"
)

func Example_callback() {
	// Create a new Config
	c, err := oauth.NewConfig(
		"your_client_id",
		"your_client_secret",
		"http://127.0.0.1:8888/callback",
		"https://your-app.example.com/",
		oauth.WithScopes("user-read-private", "user-read-email"),
	)
	if err != nil {
		// handle error
	}

	// Create a provider
	p, err := oauth.NewProvider(c)
	if err != nil {
		// handle error
	}
	defer p.Done()

	// Create the callback handler.  The browser is sent back to the app with
	// the tokens, or an opaque error tag, in the URL fragment.
	h, err := callback.AuthCode(
		p,
		callback.FragmentSuccess(c.TargetAppURL),
		callback.FragmentError(c.TargetAppURL),
	)
	if err != nil {
		// handle error
	}
	http.HandleFunc("/callback", h)
}
