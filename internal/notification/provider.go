package notification

import (
	"context"
	"errors"
)

// ChannelProvider is the contract every delivery transport implements.
// Implementations must be safe for concurrent use: Send carries no mutable
// state beyond read-only configuration and any internally synchronized
// connection cache.
type ChannelProvider interface {
	// Send attempts delivery of msg. Transport failures of any kind —
	// network, authentication, API rejection, timeout, cancellation — are
	// converted into a failed DeliveryResult. Send never panics and never
	// returns a Go error to the caller.
	Send(ctx context.Context, msg Message) DeliveryResult

	// ValidateConfig probes the transport to confirm the configuration is
	// usable (credential check or protocol handshake). It never sends a
	// message and returns false on any probe failure.
	ValidateConfig(ctx context.Context) bool

	// Name returns the stable lowercase identifier used for routing,
	// logging and result attribution.
	Name() string
}

// transportError renders a transport-layer error, prefixing timeouts and
// cancellations so callers can tell them apart from auth or payload errors.
func transportError(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout: " + err.Error()
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return "canceled: " + err.Error()
	default:
		return err.Error()
	}
}
