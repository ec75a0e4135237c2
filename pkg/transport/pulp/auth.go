// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package pulp

import (
	"net/http"
	"strings"
)

// basicAuthTransport adds HTTP basic credentials to requests.
//
// With force set the credentials go out on the first request. Otherwise the
// request is sent bare and replayed with credentials only when the server
// answers 401 with a Basic challenge, matching how url_username/url_password
// behave for ansible.builtin.uri.
type basicAuthTransport struct {
	base     http.RoundTripper
	username string
	password string
	force    bool
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.force {
		return t.base.RoundTrip(t.withCredentials(req))
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if !strings.HasPrefix(strings.ToLower(resp.Header.Get("WWW-Authenticate")), "basic") {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// Body already consumed and cannot be replayed.
		return resp, nil
	}

	resp.Body.Close()
	return t.base.RoundTrip(t.withCredentials(req))
}

func (t *basicAuthTransport) withCredentials(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			out.Body = body
		}
	}
	out.SetBasicAuth(t.username, t.password)
	return out
}
