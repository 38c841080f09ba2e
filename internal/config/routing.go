package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RoutingPolicy is the operator-editable failover policy, loaded from
// providers.yaml in the data directory.
type RoutingPolicy struct {
	// Priority is the failover order by provider name. Names must match
	// registered providers; an empty list means registration order.
	Priority []string `yaml:"priority"`

	// MaxProviders caps how many providers are attempted per message.
	// Zero means no cap.
	MaxProviders int `yaml:"max_providers"`

	Retry RetryPolicy `yaml:"retry"`
}

// RetryPolicy controls same-provider retry before failing over.
type RetryPolicy struct {
	// Attempts is the number of extra attempts on the same provider.
	// Zero disables same-provider retry.
	Attempts int `yaml:"attempts"`

	// Backoff is the base backoff between retries, as a Go duration
	// string ("200ms", "2s").
	Backoff string `yaml:"backoff"`
}

// BackoffDuration parses the Backoff string. An empty string returns zero
// with no error so the dispatcher applies its own default.
func (r RetryPolicy) BackoffDuration() (time.Duration, error) {
	if r.Backoff == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Backoff)
	if err != nil {
		return 0, fmt.Errorf("parsing retry backoff %q: %w", r.Backoff, err)
	}
	return d, nil
}

// LoadRoutingPolicy reads the routing policy from path. A missing file is
// not an error; the zero policy (registration order, no retry) is returned.
func LoadRoutingPolicy(path string) (*RoutingPolicy, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from the data dir
	if errors.Is(err, os.ErrNotExist) {
		return &RoutingPolicy{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading routing policy %q: %w", path, err)
	}

	var p RoutingPolicy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing routing policy %q: %w", path, err)
	}
	if p.MaxProviders < 0 {
		return nil, fmt.Errorf("routing policy %q: max_providers must not be negative", path)
	}
	if p.Retry.Attempts < 0 {
		return nil, fmt.Errorf("routing policy %q: retry.attempts must not be negative", path)
	}
	if _, err := p.Retry.BackoffDuration(); err != nil {
		return nil, err
	}
	return &p, nil
}
