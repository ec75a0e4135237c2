// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/platform-engineering-labs/formae-plugin-pulp2/pkg/transport/pulp"
)

// DefaultBaseURL is the API root FakeTransport resolves paths against.
const DefaultBaseURL = "https://pulp2.example.com/"

// Reply is a canned response.
type Reply struct {
	Status int
	Body   string
}

// Call is a request observed by FakeTransport.
type Call struct {
	Method string
	URL    string
	Body   json.RawMessage // nil when the request had no body
}

// String renders the call as "METHOD URL".
func (c Call) String() string {
	return c.Method + " " + c.URL
}

// FakeTransport replays canned replies keyed by method and path and records
// every request it sees. Requests without a configured reply fail, so tests
// must declare each call they expect.
type FakeTransport struct {
	BaseURL string
	Calls   []Call

	replies map[string][]Reply
	errs    map[string]error
}

// NewFakeTransport returns a transport rooted at DefaultBaseURL.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		BaseURL: DefaultBaseURL,
		replies: map[string][]Reply{},
		errs:    map[string]error{},
	}
}

// On queues replies for method and path. Replies are consumed in order and
// the last one repeats.
func (f *FakeTransport) On(method, path string, replies ...Reply) *FakeTransport {
	key := method + " " + path
	f.replies[key] = append(f.replies[key], replies...)
	return f
}

// Fail makes requests for method and path return err instead of a response.
func (f *FakeTransport) Fail(method, path string, err error) *FakeTransport {
	f.errs[method+" "+path] = err
	return f
}

// Do implements the transport capability used by the resource client.
func (f *FakeTransport) Do(_ context.Context, opts pulp.RequestOptions) (*pulp.Response, error) {
	url := strings.TrimRight(f.BaseURL, "/") + "/" + opts.Path
	call := Call{Method: opts.Method, URL: url}
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		call.Body = raw
	}
	f.Calls = append(f.Calls, call)

	key := opts.Method + " " + opts.Path
	if err, ok := f.errs[key]; ok {
		return nil, err
	}

	queue := f.replies[key]
	if len(queue) == 0 {
		return nil, fmt.Errorf("fake transport called without configuration: %s", key)
	}
	reply := queue[0]
	if len(queue) > 1 {
		f.replies[key] = queue[1:]
	}

	return &pulp.Response{StatusCode: reply.Status, URL: url, Body: []byte(reply.Body)}, nil
}

// Requests returns every observed call as "METHOD URL".
func (f *FakeTransport) Requests() []string {
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.String())
	}
	return out
}

// Writes returns the calls that were not GETs.
func (f *FakeTransport) Writes() []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

// NotFound is the reply Pulp gives for a missing resource.
func NotFound() Reply {
	return Reply{Status: http.StatusNotFound, Body: `{"http_status": 404}`}
}

// OK is an empty 200 reply.
func OK() Reply {
	return Reply{Status: http.StatusOK}
}

// Created is an empty 201 reply.
func Created() Reply {
	return Reply{Status: http.StatusCreated}
}

// JSON is a 200 reply carrying v encoded as JSON.
func JSON(v any) Reply {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil.JSON: %v", err))
	}
	return Reply{Status: http.StatusOK, Body: string(raw)}
}
