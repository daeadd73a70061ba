package transport

import (
	"context"
	"sync"
)

// Mock is a scripted Transport for tests. Each Request pops the next scripted
// step; a Block step parks the request until ctx is cancelled, which is how
// tests exercise suspension and cancellation. Mock guards its own state, as
// the runtime imposes no locking discipline on shared capabilities.
type Mock struct {
	mu    sync.Mutex
	steps []mockStep
	calls int
}

type mockStep struct {
	resp  Response
	err   error
	block bool
}

// NewMock returns an empty script; chain Respond/Fail/Block.
func NewMock() *Mock { return &Mock{} }

// Respond scripts a successful response.
func (m *Mock) Respond(status int, body string) *Mock {
	m.steps = append(m.steps, mockStep{resp: Response{Status: status, Body: []byte(body)}})
	return m
}

// Fail scripts a connection-class fault.
func (m *Mock) Fail(cause error) *Mock {
	m.steps = append(m.steps, mockStep{err: cause})
	return m
}

// Block scripts a request that never completes until ctx is cancelled.
func (m *Mock) Block() *Mock {
	m.steps = append(m.steps, mockStep{block: true})
	return m
}

// Calls reports how many requests were performed.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Transport = (*Mock)(nil)

func (m *Mock) Request(ctx context.Context, target Target) (Response, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.mu.Unlock()
	if idx >= len(m.steps) {
		panic("transport: mock script exhausted")
	}
	step := m.steps[idx]
	if step.block {
		<-ctx.Done()
		return Response{}, &Fault{Target: target, Cause: ctx.Err()}
	}
	if step.err != nil {
		return Response{}, &Fault{Target: target, Cause: step.err}
	}
	return step.resp, nil
}
