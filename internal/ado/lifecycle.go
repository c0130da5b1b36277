package ado

import (
	"context"
	"sync/atomic"
)

type readyClient struct {
	client Client
}

// Lifecycle tracks the adapter's two states: Uninitialized until Initialize
// (or MarkReady) succeeds once, Ready afterwards. It never goes back.
type Lifecycle struct {
	ready atomic.Pointer[readyClient]
}

// NewLifecycle returns an Uninitialized lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Initialize runs connect and marks the lifecycle Ready on success. The
// error is returned unchanged so the caller can treat it as fatal.
func (l *Lifecycle) Initialize(ctx context.Context, connect func(context.Context) (Client, error)) error {
	client, err := connect(ctx)
	if err != nil {
		return err
	}
	l.MarkReady(client)
	return nil
}

// MarkReady moves the lifecycle to Ready with the given client. Later calls
// are ignored.
func (l *Lifecycle) MarkReady(client Client) {
	l.ready.CompareAndSwap(nil, &readyClient{client: client})
}

// Ready reports whether the client can be used.
func (l *Lifecycle) Ready() bool {
	return l.ready.Load() != nil
}

// Client returns the ready client or ErrNotInitialized.
func (l *Lifecycle) Client() (Client, error) {
	r := l.ready.Load()
	if r == nil {
		return nil, ErrNotInitialized
	}
	return r.client, nil
}

// Source hands out the ready client. *Lifecycle implements it.
type Source interface {
	Client() (Client, error)
}
