// Package health runs periodic configuration probes against the registered
// channel providers and caches the outcomes for the API to serve.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/shaharia-lab/courier/internal/notification"
)

// Status is the cached outcome of the most recent probe for one provider.
type Status struct {
	Provider  string    `json:"provider"`
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at"`
}

// Prober periodically runs each provider's ValidateConfig probe on a gocron
// schedule. Probes confirm credentials or perform a protocol handshake;
// they never send a message.
type Prober struct {
	providers map[string]notification.ChannelProvider
	interval  time.Duration
	timeout   time.Duration
	cron      gocron.Scheduler
	logger    *slog.Logger

	mu       sync.RWMutex
	statuses map[string]Status
}

// New creates a Prober for the given providers. If interval is <= 0 it
// defaults to five minutes.
func New(providers []notification.ChannelProvider, interval time.Duration, logger *slog.Logger) (*Prober, error) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}

	byName := make(map[string]notification.ChannelProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Prober{
		providers: byName,
		interval:  interval,
		timeout:   30 * time.Second,
		cron:      cron,
		logger:    logger,
		statuses:  make(map[string]Status),
	}, nil
}

// Start runs an initial probe of every provider, then schedules recurring
// probes at the configured interval.
func (p *Prober) Start(ctx context.Context) error {
	p.probeAll(ctx)

	_, err := p.cron.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() { p.probeAll(context.Background()) }),
	)
	if err != nil {
		return fmt.Errorf("scheduling provider probes: %w", err)
	}

	p.cron.Start()
	return nil
}

// Stop shuts the probe scheduler down.
func (p *Prober) Stop() error {
	return p.cron.Shutdown()
}

// Probe runs an on-demand probe of a single provider and caches the outcome.
func (p *Prober) Probe(ctx context.Context, name string) (Status, error) {
	provider, ok := p.providers[name]
	if !ok {
		return Status{}, fmt.Errorf("unknown provider %q", name)
	}
	return p.probe(ctx, provider), nil
}

// Statuses returns the cached probe outcomes sorted by provider name.
func (p *Prober) Statuses() []Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Status, 0, len(p.statuses))
	for _, s := range p.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

func (p *Prober) probeAll(ctx context.Context) {
	for _, provider := range p.providers {
		p.probe(ctx, provider)
	}
}

func (p *Prober) probe(ctx context.Context, provider notification.ChannelProvider) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	s := Status{
		Provider:  provider.Name(),
		Healthy:   provider.ValidateConfig(ctx),
		CheckedAt: time.Now().UTC(),
	}

	if !s.Healthy {
		p.logger.Warn("provider configuration probe failed", slog.String("provider", s.Provider))
	}

	p.mu.Lock()
	p.statuses[s.Provider] = s
	p.mu.Unlock()
	return s
}
