package views

import (
	"context"
	"sync"

	"careercoach/internal/errors"

	"github.com/google/uuid"
)

// Scope ties a view's backend calls to the view's lifetime.
// Only the result of the most recent Begin is ever accepted, and nothing
// is accepted after Unmount.
type Scope struct {
	mu        sync.Mutex
	id        string
	logger    *errors.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	reqCancel context.CancelFunc
	seq       uint64
	unmounted bool
}

// Mount binds the scope to parent. Cancelling parent unmounts the view.
func (s *Scope) Mount(parent context.Context, logger *errors.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if logger == nil {
		logger = errors.Discard()
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(parent)
	s.logger = logger.With("scope_id", s.id)
	s.unmounted = false
}

// Begin starts a request cycle, cancelling the previous one
func (s *Scope) Begin() (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil && !s.unmounted {
		s.mountLocked()
	}
	if s.reqCancel != nil {
		s.reqCancel()
		s.reqCancel = nil
	}

	s.seq++
	if s.unmounted {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, s.seq
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.reqCancel = cancel
	return ctx, s.seq
}

// Accept reports whether the cycle identified by token may still apply its result
func (s *Scope) Accept(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted || s.ctx == nil || token != s.seq {
		return false
	}
	return s.ctx.Err() == nil
}

// Unmount cancels every in-flight request of the view
func (s *Scope) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unmounted = true
	if s.reqCancel != nil {
		s.reqCancel()
		s.reqCancel = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// ID returns the scope identifier used in log lines
func (s *Scope) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Scope) log() *errors.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		return errors.Discard()
	}
	return s.logger
}

func (s *Scope) mountLocked() {
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if s.logger == nil {
		s.logger = errors.Discard()
	}
}
