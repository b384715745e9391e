package core

import (
	"context"
	"errors"
	"sync"
)

// ErrCanceled is returned when a run was superseded or its context ended.
// It is an expected outcome, not a fault.
var ErrCanceled = errors.New("run canceled")

// Token identifies one run. Only the most recent token handed out by a Gate
// is active.
type Token uint64

// Gate is the cooperative pause/cancel checkpoint passed before every
// environment step.
type Gate struct {
	mu       sync.Mutex
	active   Token
	paused   bool
	resumeCh chan struct{}
}

func NewGate() *Gate {
	return &Gate{resumeCh: make(chan struct{})}
}

// Begin starts a new run. Every earlier token becomes stale and any pause is
// lifted so waiting runs can observe that.
func (g *Gate) Begin() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active++
	g.resumeLocked()
	return g.active
}

// Cancel invalidates the active run without starting a new one.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active++
	g.resumeLocked()
}

func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = true
}

func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumeLocked()
}

func (g *Gate) resumeLocked() {
	if !g.paused {
		return
	}
	g.paused = false
	close(g.resumeCh)
	g.resumeCh = make(chan struct{})
}

func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

func (g *Gate) Active(token Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.active
}

// Pass blocks while the gate is paused and returns ErrCanceled once token is
// no longer the active run or ctx is done.
func (g *Gate) Pass(ctx context.Context, token Token) error {
	for {
		select {
		case <-ctx.Done():
			return ErrCanceled
		default:
		}

		g.mu.Lock()
		if token != g.active {
			g.mu.Unlock()
			return ErrCanceled
		}
		if !g.paused {
			g.mu.Unlock()
			return nil
		}
		ch := g.resumeCh
		g.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ErrCanceled
		}
	}
}
