// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// tunescallback provides the packages behind the tunes widget's OAuth2
// redirect endpoint: the authorization code exchange (oauth), the http
// handlers which complete the flow in the browser (oauth/callback) and the
// environment config for the service (config).
//
// The service itself is cmd/tunes-callback.
package tunescallback
