// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
oauth is a package for completing the OAuth2 authorization code flow against
a third party authorization server (Spotify Accounts by default) on behalf of
a browser based client application.

Primary types provided by the package

* Config: the immutable configuration for the flow (client id/secret, redirect
URI, token and authorize endpoints, the target client application URL, and
the outbound request timeout).

* Provider: exchanges authorization codes for tokens using one bounded
outbound request, and builds authorize URLs.

* Token: the access_token, refresh_token and expires_in received from a
successful exchange.  Tokens and the client secret redact themselves when
formatted or marshaled.

* TestProvider: a disposable token endpoint for tests.

The oauth.callback package

The callback package includes the ability to create a http.HandlerFunc which
can be used for the 3rd leg of the flow where the authorization code is
exchanged for tokens and the browser is redirected back to the client
application.
*/
package oauth
