package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoutingFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadRoutingPolicy_MissingFileReturnsZeroPolicy(t *testing.T) {
	p, err := LoadRoutingPolicy(filepath.Join(t.TempDir(), "providers.yaml"))
	require.NoError(t, err)

	assert.Empty(t, p.Priority)
	assert.Zero(t, p.MaxProviders)
	assert.Zero(t, p.Retry.Attempts)
}

func TestLoadRoutingPolicy_ParsesFile(t *testing.T) {
	path := writeRoutingFile(t, `
priority:
  - sendgrid
  - smtp
max_providers: 2
retry:
  attempts: 1
  backoff: 500ms
`)

	p, err := LoadRoutingPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"sendgrid", "smtp"}, p.Priority)
	assert.Equal(t, 2, p.MaxProviders)
	assert.Equal(t, 1, p.Retry.Attempts)

	backoff, err := p.Retry.BackoffDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, backoff)
}

func TestLoadRoutingPolicy_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad backoff":           "retry:\n  backoff: soon\n",
		"negative attempts":     "retry:\n  attempts: -1\n",
		"negative max_providers": "max_providers: -2\n",
		"malformed yaml":        "priority: [unclosed\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRoutingPolicy(writeRoutingFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestBackoffDuration_EmptyIsZero(t *testing.T) {
	d, err := RetryPolicy{}.BackoffDuration()
	require.NoError(t, err)
	assert.Zero(t, d)
}
