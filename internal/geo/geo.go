// Package geo acquires a best-effort device position with a hard wall-clock
// bound. Denial, timeout, and missing capability all resolve to an absent
// fix, never an error; submission flows proceed without coordinates.
package geo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/paglaumhub/reliefmap/internal/models"
)

var (
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrUnavailable      = errors.New("geolocation unavailable")
)

const defaultTimeout = 10 * time.Second

// Options mirrors the positioning request knobs: accuracy preference, the
// acquisition bound, and how stale a cached position may be.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

type Position struct {
	models.Coordinates
	Accuracy float64 // meters, 0 when unknown
}

// Fix is the outcome of an acquisition. OK is false when no position could
// be obtained within the bound; that is a resolved state, not a failure.
type Fix struct {
	Position Position
	OK       bool
}

// Provider is the platform positioning capability. Implementations must
// honor ctx cancellation.
type Provider interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// StaticProvider reports a fixed position, for deployments at a known site
// (a field kiosk or command post) where no live positioning hardware exists.
type StaticProvider struct {
	Pos Position
}

func (p StaticProvider) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	return p.Pos, nil
}

// Gate bounds acquisitions against a Provider. A nil provider models a
// device without positioning capability.
type Gate struct {
	provider Provider
	clock    clockwork.Clock
}

type GateOption func(*Gate)

func WithClock(c clockwork.Clock) GateOption {
	return func(g *Gate) { g.clock = c }
}

func NewGate(p Provider, opts ...GateOption) *Gate {
	g := &Gate{
		provider: p,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Acquire resolves to an absent Fix on denial, provider error, timeout, or
// missing capability. The provider call is abandoned once the bound elapses;
// its eventual result is discarded.
func (g *Gate) Acquire(ctx context.Context, opts Options) Fix {
	if g.provider == nil {
		return Fix{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	type outcome struct {
		pos Position
		err error
	}

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		pos, err := g.provider.CurrentPosition(pctx, opts)
		ch <- outcome{pos: pos, err: err}
	}()

	timer := g.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Fix{}
	case <-timer.Chan():
		slog.Debug("geolocation timed out", "timeout", timeout)
		return Fix{}
	case out := <-ch:
		if out.err != nil {
			slog.Debug("geolocation unavailable", "error", out.err)
			return Fix{}
		}
		return Fix{Position: out.pos, OK: true}
	}
}
