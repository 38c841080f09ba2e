// Package storage persists delivery outcomes for the analytics and
// reporting collaborators that consume them out of band.
package storage

import (
	"context"
	"time"
)

// DeliveryLogEntry records a single delivery attempt through one provider.
type DeliveryLogEntry struct {
	ID         int64     `json:"id"`
	DeliveryID string    `json:"delivery_id"`
	Provider   string    `json:"provider"`
	Recipients int       `json:"recipients"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"` // "sent" or "failed"
	MessageID  string    `json:"message_id,omitempty"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Cost       float64   `json:"cost"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProviderStats aggregates attempt counts per provider.
type ProviderStats struct {
	Provider string `json:"provider"`
	Sent     int64  `json:"sent"`
	Failed   int64  `json:"failed"`
}

// DeliveryStore defines the interface for persisting delivery attempts.
type DeliveryStore interface {
	// LogDelivery records one delivery attempt.
	LogDelivery(ctx context.Context, entry DeliveryLogEntry) error
	// ListDeliveries returns the most recent attempts, up to limit.
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryLogEntry, error)
	// ProviderStats returns per-provider sent/failed counts.
	ProviderStats(ctx context.Context) ([]ProviderStats, error)
}
