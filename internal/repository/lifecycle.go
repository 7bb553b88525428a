package repository

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lifecycle memoizes a backend's connection state.
//
// Concurrent callers racing to connect share the single in-flight attempt
// (singleflight) instead of opening duplicate connections. Once connected,
// Connect is a no-op; Disconnect on a disconnected backend is a no-op too.
//
// The zero value is ready to use.
type Lifecycle struct {
	mu        sync.Mutex
	connected bool
	group     singleflight.Group
}

// Connected reports whether open has succeeded and close has not since run.
func (l *Lifecycle) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Connect runs open unless already connected or another caller's attempt is
// in flight, in which case it waits for that attempt's result.
//
// open runs under context.WithoutCancel: a caller giving up does not abort
// the attempt the other waiters depend on. Engine-level timeouts still apply.
func (l *Lifecycle) Connect(ctx context.Context, open func(context.Context) error) error {
	if l.Connected() {
		return nil
	}

	_, err, _ := l.group.Do("connect", func() (any, error) {
		if l.Connected() {
			return nil, nil
		}
		if err := open(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.connected = true
		l.mu.Unlock()
		return nil, nil
	})
	return err
}

// Disconnect runs close if connected.
func (l *Lifecycle) Disconnect(ctx context.Context, close func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected {
		return nil
	}
	if err := close(ctx); err != nil {
		return err
	}
	l.connected = false
	return nil
}
