// Package dispatch selects among channel providers and applies the
// failover policy for each outbound message.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/metrics"
	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/storage"
)

// ErrUnknownProvider is returned when a requested provider name is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrNoProviders is returned when the dispatcher is constructed without providers.
var ErrNoProviders = errors.New("no providers configured")

const defaultRetryBackoff = 200 * time.Millisecond

// Policy controls provider ordering and retry behavior.
type Policy struct {
	// Priority is the default failover order by provider name. Empty means
	// registration order.
	Priority []string
	// MaxProviders caps how many providers are attempted per message.
	// Zero means all providers in the resolved order.
	MaxProviders int
	// RetryAttempts is the number of extra attempts on the same provider
	// before failing over. Zero disables same-provider retry.
	RetryAttempts int
	// RetryBackoff is the base fibonacci backoff between same-provider retries.
	RetryBackoff time.Duration
}

// EventPublisher decouples the dispatcher from the concrete event bus.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Config holds the dispatcher's collaborators. Store, Events and Metrics
// are optional; a nil collaborator is skipped.
type Config struct {
	Providers []notification.ChannelProvider
	Policy    Policy
	Store     storage.DeliveryStore
	Events    EventPublisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Outcome is the aggregate of one dispatch: the final result plus the
// per-provider attempt trail, so no failure detail is lost.
type Outcome struct {
	DeliveryID string                        `json:"delivery_id"`
	Result     notification.DeliveryResult   `json:"result"`
	Attempts   []notification.DeliveryResult `json:"attempts"`
}

// Dispatcher routes messages through providers in priority order, failing
// over on each failed attempt until one succeeds or the order is exhausted.
type Dispatcher struct {
	providers map[string]notification.ChannelProvider
	order     []string
	policy    Policy
	store     storage.DeliveryStore
	events    EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Dispatcher. Priority names must refer to registered providers.
func New(cfg Config) (*Dispatcher, error) {
	if len(cfg.Providers) == 0 {
		return nil, ErrNoProviders
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Policy.RetryBackoff <= 0 {
		cfg.Policy.RetryBackoff = defaultRetryBackoff
	}

	providers := make(map[string]notification.ChannelProvider, len(cfg.Providers))
	registered := make([]string, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if _, dup := providers[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate provider %q", p.Name())
		}
		providers[p.Name()] = p
		registered = append(registered, p.Name())
	}

	order := cfg.Policy.Priority
	if len(order) == 0 {
		order = registered
	}
	for _, name := range order {
		if _, ok := providers[name]; !ok {
			return nil, fmt.Errorf("%w: %q in priority order", ErrUnknownProvider, name)
		}
	}

	return &Dispatcher{
		providers: providers,
		order:     order,
		policy:    cfg.Policy,
		store:     cfg.Store,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}, nil
}

// Providers returns the registered provider names in priority order.
func (d *Dispatcher) Providers() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Dispatch validates msg and attempts delivery through the named providers
// (or the configured priority order when names is empty), failing over on
// each failed attempt. The returned error is non-nil only when the message
// is rejected before any provider is invoked; transport failures and
// exhaustion are reported through the Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, msg notification.Message, names ...string) (*Outcome, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	order, err := d.resolveOrder(names)
	if err != nil {
		return nil, err
	}
	if max := d.policy.MaxProviders; max > 0 && len(order) > max {
		order = order[:max]
	}

	out := &Outcome{DeliveryID: uuid.NewString()}

	for i, name := range order {
		res := d.attempt(ctx, d.providers[name], msg)
		out.Attempts = append(out.Attempts, res)
		d.record(ctx, out.DeliveryID, msg, res)

		if res.Success {
			if i > 0 {
				if d.metrics != nil {
					d.metrics.Failovers.Inc()
				}
				d.logger.Info("delivery succeeded after failover",
					slog.String("delivery_id", out.DeliveryID),
					slog.String("provider", name),
					slog.Int("attempt", i+1))
			}
			out.Result = res
			return out, nil
		}

		d.logger.Warn("delivery attempt failed",
			slog.String("delivery_id", out.DeliveryID),
			slog.String("provider", name),
			slog.String("error", res.ErrorMessage))
	}

	out.Result = exhaustedResult(out.Attempts)
	d.logger.Error("all providers exhausted",
		slog.String("delivery_id", out.DeliveryID),
		slog.String("error", out.Result.ErrorMessage))

	if d.metrics != nil {
		d.metrics.Exhausted.Inc()
	}
	if d.events != nil {
		d.events.Publish(eventbus.EventDeliveryExhausted, map[string]string{
			"delivery_id": out.DeliveryID,
			"providers":   strings.Join(order, ","),
			"error":       out.Result.ErrorMessage,
		})
	}
	return out, nil
}

// resolveOrder maps the caller's explicit provider names onto registered
// providers, defaulting to the configured priority order.
func (d *Dispatcher) resolveOrder(names []string) ([]string, error) {
	if len(names) == 0 {
		return d.order, nil
	}
	for _, name := range names {
		if _, ok := d.providers[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
	}
	return names, nil
}

// attempt runs a single provider, applying the same-provider retry policy.
// A provider is never re-entered once the dispatcher has moved past it.
func (d *Dispatcher) attempt(ctx context.Context, p notification.ChannelProvider, msg notification.Message) notification.DeliveryResult {
	var res notification.DeliveryResult

	b := retry.WithMaxRetries(uint64(d.policy.RetryAttempts), retry.NewFibonacci(d.policy.RetryBackoff))
	_ = retry.Do(ctx, b, func(ctx context.Context) error {
		res = p.Send(ctx, msg)
		if !res.Success {
			return retry.RetryableError(errors.New(res.ErrorMessage))
		}
		return nil
	})

	return res
}

// record reports one attempt to the delivery log, the event bus, and the
// metrics registry. Reporting failures are logged and never fail the dispatch.
func (d *Dispatcher) record(ctx context.Context, deliveryID string, msg notification.Message, res notification.DeliveryResult) {
	status := "failed"
	eventType := eventbus.EventDeliveryFailed
	if res.Success {
		status = "sent"
		eventType = eventbus.EventDeliverySucceeded
	}

	if d.metrics != nil {
		d.metrics.Attempts.WithLabelValues(res.Provider, status).Inc()
		d.metrics.Duration.WithLabelValues(res.Provider).Observe(float64(res.DurationMS) / 1000)
	}

	if d.store != nil {
		entry := storage.DeliveryLogEntry{
			DeliveryID: deliveryID,
			Provider:   res.Provider,
			Recipients: len(msg.To),
			Subject:    msg.Subject,
			Status:     status,
			MessageID:  res.MessageID,
			ErrorMsg:   res.ErrorMessage,
			DurationMS: res.DurationMS,
			Cost:       res.Cost,
			CreatedAt:  time.Now().UTC(),
		}
		if err := d.store.LogDelivery(ctx, entry); err != nil {
			d.logger.Error("failed to log delivery attempt",
				slog.String("delivery_id", deliveryID), slog.Any("error", err))
		}
	}

	if d.events != nil {
		d.events.Publish(eventType, map[string]string{
			"delivery_id": deliveryID,
			"provider":    res.Provider,
			"message_id":  res.MessageID,
			"error":       res.ErrorMessage,
			"duration_ms": strconv.FormatInt(res.DurationMS, 10),
		})
	}
}

// exhaustedResult synthesizes the terminal failure result, concatenating
// each provider's failure reason tagged by provider name so no detail is lost.
func exhaustedResult(attempts []notification.DeliveryResult) notification.DeliveryResult {
	parts := make([]string, 0, len(attempts))
	var total int64
	for _, a := range attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.ErrorMessage))
		total += a.DurationMS
	}
	return notification.DeliveryResult{
		Provider:     "dispatcher",
		ErrorMessage: "all providers failed: " + strings.Join(parts, "; "),
		DurationMS:   total,
	}
}
