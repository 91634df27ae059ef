package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nikolayk812/partyshop/internal/metrics"
	"github.com/nikolayk812/partyshop/internal/port"
)

type persistKind int

const (
	persistWrite persistKind = iota + 1
	persistDelete
)

func (k persistKind) String() string {
	if k == persistDelete {
		return "delete"
	}
	return "write"
}

type persistOp struct {
	kind     persistKind
	snapshot []byte
}

// persister is the only goroutine that touches cart storage after the restore.
// Both operations carry the whole cart state, so a pending operation is simply replaced by a newer one.
type persister struct {
	storage port.CartStorage
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu      sync.Mutex
	pending *persistOp
	busy    bool
	stopped bool
	waiters []chan struct{}

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newPersister(storage port.CartStorage, logger *slog.Logger, m *metrics.Metrics, timeout time.Duration) *persister {
	p := &persister{
		storage: storage,
		logger:  logger,
		metrics: m,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()

	return p
}

func (p *persister) submit(op persistOp) {
	p.mu.Lock()
	if p.pending != nil {
		p.metrics.CartPersisted(p.pending.kind.String(), metrics.ResultDropped)
	}
	p.pending = &op
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// barrier returns a channel closed once every operation submitted so far has been executed.
func (p *persister) barrier() <-chan struct{} {
	ch := make(chan struct{})

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || (p.pending == nil && !p.busy) {
		close(ch)
		return ch
	}
	p.waiters = append(p.waiters, ch)

	return ch
}

// close lets the pending operation finish and stops the goroutine.
func (p *persister) close() {
	close(p.stop)
	<-p.done
}

func (p *persister) run() {
	defer close(p.done)

	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.stop:
			p.drain()

			p.mu.Lock()
			p.stopped = true
			waiters := p.waiters
			p.waiters = nil
			p.mu.Unlock()

			for _, w := range waiters {
				close(w)
			}
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		op := p.pending
		p.pending = nil

		if op == nil {
			p.busy = false
			waiters := p.waiters
			p.waiters = nil
			p.mu.Unlock()

			for _, w := range waiters {
				close(w)
			}
			return
		}

		p.busy = true
		p.mu.Unlock()

		p.exec(*op)
	}
}

func (p *persister) exec(op persistOp) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var err error
	switch op.kind {
	case persistWrite:
		err = p.storage.WriteCart(ctx, op.snapshot)
	case persistDelete:
		err = p.storage.DeleteCart(ctx)
	}

	if err != nil {
		p.metrics.CartPersisted(op.kind.String(), metrics.ResultError)
		p.logger.Error("cart persistence failed",
			slog.String("op", op.kind.String()),
			slog.Any("error", err))
		return
	}

	p.metrics.CartPersisted(op.kind.String(), metrics.ResultOK)
}
