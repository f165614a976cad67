package ocr

import (
	"context"
	"sync"
)

// Pool bounds the number of live OCR engines, preventing unbounded native
// client (or external process) spawning when pages are processed
// concurrently. Engines are created lazily through the factory on first
// demand and reused afterwards.
type Pool struct {
	factory func() (Engine, error)
	sem     chan struct{}

	mu     sync.Mutex
	idle   []Engine
	closed bool
}

// NewPool creates a pool of at most size engines. Size values below 1 are
// treated as 1.
func NewPool(size int, factory func() (Engine, error)) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		factory: factory,
		sem:     make(chan struct{}, size),
	}
}

// Acquire returns an engine, creating one if the pool is below capacity,
// or blocks until one is released or the context is cancelled.
func (p *Pool) Acquire(ctx context.Context) (Engine, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.sem
		return nil, ErrEngineUnavailable
	}
	if n := len(p.idle); n > 0 {
		engine := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return engine, nil
	}
	p.mu.Unlock()

	engine, err := p.factory()
	if err != nil {
		<-p.sem
		return nil, err
	}
	return engine, nil
}

// Release returns an engine to the pool for reuse. An engine must be
// released exactly once per successful Acquire, and only after any
// in-flight Recognize call has finished.
func (p *Pool) Release(engine Engine) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		engine.Close()
		<-p.sem
		return
	}
	p.idle = append(p.idle, engine)
	p.mu.Unlock()
	<-p.sem
}

// Close shuts the pool and closes all idle engines. Engines still acquired
// are closed as they are released. Close returns the first close error
// encountered.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var first error
	for _, engine := range idle {
		if err := engine.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
