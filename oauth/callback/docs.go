// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides callbacks (in the form of http.HandlerFunc)
for handling an authorization server's response to an OAuth2 authorization code
flow attempt, plus a login handler which starts the flow.

The default response funcs (FragmentSuccess and FragmentError) redirect the
browser back to the client application with the tokens, or an opaque error
tag, in the URL fragment.  Fragments are not sent to servers on subsequent
navigation, but they do remain in the browser's history: this is suitable for
demos, not for production token storage.

The "state" parameter is passed through to the response funcs and logged, but
it is not validated against a previously issued value, so these handlers
provide no CSRF protection on their own.
*/
package callback
