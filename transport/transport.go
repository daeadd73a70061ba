// Package transport defines the transport capability shape the effect
// runtime consumes: perform one HTTP-like request, suspend until a response
// or fault arrives. The runtime never performs networking itself; it only
// resolves a Transport from the environment and invokes it at a suspension
// point.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CapabilityName is the environment key a request effect resolves.
const CapabilityName = "transport"

// Target describes one request.
type Target struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Get builds a GET target for the given URL.
func Get(url string) Target {
	return Target{Method: http.MethodGet, URL: url}
}

// Response carries a status code and the raw, unvalidated body.
type Response struct {
	Status int
	Body   []byte
}

// Transport performs one request. Implementations must honor ctx
// cancellation: an aborted request returns ctx's error wrapped in a Fault.
type Transport interface {
	Request(ctx context.Context, target Target) (Response, error)
}

// Fault reports a connection-class failure: refused, reset, timed out,
// DNS failure. A response that arrived with a bad status is a StatusFault,
// not a Fault.
type Fault struct {
	Target Target
	Cause  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", f.Target.Method, f.Target.URL, f.Cause)
}

func (f *Fault) Unwrap() error { return f.Cause }

// StatusFault reports a response that arrived with a non-success status.
type StatusFault struct {
	Status int
}

func (f *StatusFault) Error() string {
	return fmt.Sprintf("transport: unexpected status %d", f.Status)
}

// HTTP is the net/http-backed Transport.
type HTTP struct {
	// Client defaults to http.DefaultClient when nil.
	Client *http.Client
}

var _ Transport = (*HTTP)(nil)

func (t *HTTP) Request(ctx context.Context, target Target) (Response, error) {
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	var body io.Reader
	if len(target.Body) > 0 {
		body = strings.NewReader(string(target.Body))
	}
	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, body)
	if err != nil {
		return Response{}, &Fault{Target: target, Cause: err}
	}
	for k, vs := range target.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Response{}, &Fault{Target: target, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &Fault{Target: target, Cause: err}
	}
	return Response{Status: resp.StatusCode, Body: raw}, nil
}
