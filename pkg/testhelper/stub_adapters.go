package testhelper

import (
	"context"
	"sync"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
)

// StubAdapter is a channel adapter for tests: it records every send and
// answers with a configured error and optional delay.
type StubAdapter struct {
	Kind  notification.Channel
	Err   error
	Delay time.Duration

	mu    sync.Mutex
	calls []notification.Content
}

func NewStubAdapter(kind notification.Channel) *StubAdapter {
	return &StubAdapter{Kind: kind}
}

func (s *StubAdapter) Channel() notification.Channel {
	return s.Kind
}

func (s *StubAdapter) Send(ctx context.Context, content notification.Content) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, content)
	s.mu.Unlock()
	return s.Err
}

// Calls returns how many sends reached the adapter.
func (s *StubAdapter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// LastContent returns the most recent content sent, or a zero value.
func (s *StubAdapter) LastContent() notification.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return notification.Content{}
	}
	return s.calls[len(s.calls)-1]
}
