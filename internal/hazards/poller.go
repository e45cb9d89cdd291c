// Package hazards polls the two external hazard feeds (seismic events and
// tropical-cyclone tracks) and republishes their latest snapshot for the map
// overlay. The feeds are independent of each other and of entity sync.
package hazards

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/paglaumhub/reliefmap/internal/observability"
)

const (
	FeedQuakes   = "quakes"
	FeedCyclones = "cyclones"
)

// Snapshot is the point-in-time view of both feeds. Each collection is
// replaced wholesale on its feed's successful poll; a failed poll leaves the
// previous collection untouched (stale but available).
type Snapshot struct {
	Quakes            []Quake
	Cyclones          []Cyclone
	QuakesFetchedAt   time.Time
	CyclonesFetchedAt time.Time
}

// Poller runs one polling loop per feed on a fixed cadence.
type Poller struct {
	quakeURL   string
	cycloneURL string
	interval   time.Duration
	client     *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	onUpdate   func()

	mu   sync.RWMutex
	snap Snapshot
	wg   sync.WaitGroup
}

type Option func(*Poller)

func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Poller) { p.client = c }
}

// WithOnUpdate registers fn to run after every successful poll, so views
// re-render the overlay.
func WithOnUpdate(fn func()) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

func NewPoller(quakeURL, cycloneURL string, interval time.Duration, metrics *observability.Metrics, opts ...Option) *Poller {
	p := &Poller{
		quakeURL:   quakeURL,
		cycloneURL: cycloneURL,
		interval:   interval,
		client:     &http.Client{Timeout: 15 * time.Second},
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches both feed loops. Each polls immediately, then on every
// interval tick, until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(2)
	go p.run(ctx, FeedQuakes)
	go p.run(ctx, FeedCyclones)
}

func (p *Poller) run(ctx context.Context, feed string) {
	defer p.wg.Done()
	slog.Info("starting hazard poller", "feed", feed, "interval", p.interval)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, feed)

	for {
		select {
		case <-ctx.Done():
			slog.Info("hazard poller shutting down", "feed", feed)
			return
		case <-ticker.Chan():
			p.poll(ctx, feed)
		}
	}
}

func (p *Poller) poll(ctx context.Context, feed string) {
	slog.Debug("polling hazard feed", "feed", feed)

	switch feed {
	case FeedQuakes:
		quakes, err := p.fetchQuakes(ctx, p.quakeURL)
		if err != nil {
			p.metrics.HazardPolls.WithLabelValues(feed, "error").Inc()
			slog.Error("hazard poll failed, keeping previous snapshot", "feed", feed, "error", err)
			return
		}
		p.mu.Lock()
		p.snap.Quakes = quakes
		p.snap.QuakesFetchedAt = p.clock.Now()
		p.mu.Unlock()
		p.metrics.HazardPolls.WithLabelValues(feed, "success").Inc()
		slog.Debug("hazard poll complete", "feed", feed, "count", len(quakes))

	case FeedCyclones:
		cyclones, err := p.fetchCyclones(ctx, p.cycloneURL)
		if err != nil {
			p.metrics.HazardPolls.WithLabelValues(feed, "error").Inc()
			slog.Error("hazard poll failed, keeping previous snapshot", "feed", feed, "error", err)
			return
		}
		p.mu.Lock()
		p.snap.Cyclones = cyclones
		p.snap.CyclonesFetchedAt = p.clock.Now()
		p.mu.Unlock()
		p.metrics.HazardPolls.WithLabelValues(feed, "success").Inc()
		slog.Debug("hazard poll complete", "feed", feed, "count", len(cyclones))
	}

	if p.onUpdate != nil {
		p.onUpdate()
	}
}

// Snapshot returns a copy; callers may hold it across renders without
// observing later replacements.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := Snapshot{
		Quakes:            make([]Quake, len(p.snap.Quakes)),
		Cyclones:          make([]Cyclone, len(p.snap.Cyclones)),
		QuakesFetchedAt:   p.snap.QuakesFetchedAt,
		CyclonesFetchedAt: p.snap.CyclonesFetchedAt,
	}
	copy(out.Quakes, p.snap.Quakes)
	copy(out.Cyclones, p.snap.Cyclones)
	return out
}

// Stop waits for both loops to exit. Cancel the Start ctx first.
func (p *Poller) Stop() {
	p.wg.Wait()
}
