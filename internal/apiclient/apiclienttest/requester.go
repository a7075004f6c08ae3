// Package apiclienttest provides an in-memory apiclient.Requester for service
// tests.
package apiclienttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient"
)

// Call is one request seen by the Requester.
type Call struct {
	Method   string
	Path     string
	Query    url.Values
	Body     string
	SkipAuth bool
}

type route struct {
	status int
	body   []byte
}

// Requester answers requests from canned routes and records every call.
// Unknown routes answer 404.
type Requester struct {
	mu         sync.Mutex
	routes     map[string]route
	calls      []Call
	shouldFail bool
	failError  error
}

var _ apiclient.Requester = (*Requester)(nil)

func New() *Requester {
	return &Requester{routes: make(map[string]route)}
}

// On registers the answer for method and path. body may be a string or
// []byte sent verbatim, or any value encoded as JSON.
func (r *Requester) On(method, path string, status int, body any) *Requester {
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	case []byte:
		raw = b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			panic(fmt.Sprintf("apiclienttest: cannot encode body for %s %s: %v", method, path, err))
		}
		raw = encoded
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[method+" "+path] = route{status: status, body: raw}
	return r
}

// SetShouldFail makes every request fail with err before routing.
func (r *Requester) SetShouldFail(shouldFail bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shouldFail = shouldFail
	r.failError = err
}

func (r *Requester) Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error) {
	call := Call{Method: req.Method, Path: req.Path, Query: req.Query, SkipAuth: req.SkipAuth}
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, internal.NewInternalError("failed to encode request body", err)
		}
		call.Body = string(raw)
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	shouldFail, failError := r.shouldFail, r.failError
	rt, ok := r.routes[req.Method+" "+req.Path]
	r.mu.Unlock()

	if shouldFail {
		return nil, failError
	}
	if !ok {
		return nil, internal.FromStatus(http.StatusNotFound, "no route for "+req.Method+" "+req.Path)
	}
	if rt.status >= 300 {
		return nil, internal.FromStatus(rt.status, string(rt.body))
	}
	return &apiclient.Response{StatusCode: rt.status, Header: http.Header{}, Body: rt.body}, nil
}

func (r *Requester) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// LastCall returns the most recent call, or the zero Call.
func (r *Requester) LastCall() Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}
	}
	return r.calls[len(r.calls)-1]
}

// Wrap builds a {"success":true,"data":...} body.
func Wrap(data any) map[string]any {
	return map[string]any{"success": true, "message": "OK", "data": data}
}
