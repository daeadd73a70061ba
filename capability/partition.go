// Package capability helps share one capability implementation across many
// concurrent runs. The scheduler imposes no locking discipline on shared
// capabilities; Partitioned supplies one when per-key ordering matters, by
// hashing each request onto a fixed worker so requests with the same
// partition key are handled by the same goroutine, in arrival order.
package capability

import (
	"context"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Partitionable requests carry the key their ordering is scoped to.
type Partitionable interface {
	PartitionKey() string
}

// Result pairs a handled value with its error for channel delivery.
type Result[R any] struct {
	Value R
	Err   error
}

// ErrClosed is returned for requests made after Close.
var ErrClosed = errors.New("capability: partitioned dispatcher closed")

type request[P Partitionable, R any] struct {
	payload P
	resume  chan Result[R]
}

// Partitioned fans requests over a fixed set of worker goroutines keyed by
// xxhash of the partition key.
type Partitioned[P Partitionable, R any] struct {
	// ID identifies the dispatcher in logs and diagnostics.
	ID string

	chs    []chan request[P, R]
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPartitioned starts numWorkers handler goroutines, each with its own
// buffered queue. Non-positive sizes fall back to 1, matching the scheduler
// convention of always having at least one worker.
func NewPartitioned[P Partitionable, R any](
	ctx context.Context,
	numWorkers, bufferSize int,
	handle func(context.Context, P) (R, error),
) *Partitioned[P, R] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Partitioned[P, R]{
		ID:     uuid.New().String(),
		chs:    make([]chan request[P, R], numWorkers),
		cancel: cancel,
	}

	ready := sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		ch := make(chan request[P, R], bufferSize)
		p.chs[i] = ch
		ready.Add(1)
		p.wg.Add(1)
		go func(ch chan request[P, R]) {
			defer p.wg.Done()
			ready.Done()
			for {
				select {
				case req := <-ch:
					select {
					case <-ctx.Done():
					case req.resume <- resultFrom(handle(ctx, req.payload)):
					}
					close(req.resume)
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	ready.Wait()

	return p
}

// Do routes one request to its partition worker and waits for the
// resumption. Requests with equal keys are handled strictly in Do order.
func (p *Partitioned[P, R]) Do(ctx context.Context, payload P) (R, error) {
	var zero R
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return zero, ErrClosed
	}
	p.mu.Unlock()

	resume := make(chan Result[R], 1)
	req := request[P, R]{payload: payload, resume: resume}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case p.channelOf(payload) <- req:
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res, ok := <-resume:
		if !ok {
			return zero, ErrClosed
		}
		return res.Value, res.Err
	}
}

// Close stops the workers. In-flight requests observe ErrClosed or a closed
// resume channel; Close waits for the workers to exit.
func (p *Partitioned[P, R]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

func (p *Partitioned[P, R]) channelOf(payload P) chan request[P, R] {
	if len(p.chs) == 1 {
		return p.chs[0]
	}
	idx := xxhash.Sum64String(payload.PartitionKey()) % uint64(len(p.chs))
	return p.chs[idx]
}

func resultFrom[R any](value R, err error) Result[R] {
	return Result[R]{Value: value, Err: err}
}
