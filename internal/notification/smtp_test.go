package notification_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/courier/internal/notification"
)

// unusedLocalPort grabs a port from the kernel and releases it, so dialing
// it afterwards fails fast with connection refused.
func unusedLocalPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func newUnreachableSMTPProvider(t *testing.T) *notification.SMTPProvider {
	t.Helper()
	p := notification.NewSMTPProvider(notification.SMTPConfig{
		Host:        "127.0.0.1",
		Port:        unusedLocalPort(t),
		FromAddress: "noreply@svc.com",
		Timeout:     2 * time.Second,
	})
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestSMTPName(t *testing.T) {
	assert.Equal(t, "smtp", newUnreachableSMTPProvider(t).Name())
}

func TestSMTPSend_ConnectionFailureBecomesResult(t *testing.T) {
	p := newUnreachableSMTPProvider(t)

	res := p.Send(context.Background(), validMessage())

	require.False(t, res.Success)
	assert.Equal(t, "smtp", res.Provider)
	assert.Empty(t, res.MessageID)
	assert.NotEmpty(t, res.ErrorMessage)
	assert.GreaterOrEqual(t, res.DurationMS, int64(0))
}

func TestSMTPSend_InvalidEnvelopeBecomesResult(t *testing.T) {
	p := newUnreachableSMTPProvider(t)

	msg := validMessage()
	msg.From = "definitely not an address"
	res := p.Send(context.Background(), msg)

	require.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "invalid from address")
}

func TestSMTPSend_Cancellation(t *testing.T) {
	p := newUnreachableSMTPProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Send(ctx, validMessage())
	require.False(t, res.Success)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestSMTPValidateConfig_UnreachableHost(t *testing.T) {
	p := newUnreachableSMTPProvider(t)
	assert.False(t, p.ValidateConfig(context.Background()))
}

func TestSMTPClose_WithoutConnection(t *testing.T) {
	p := notification.NewSMTPProvider(notification.SMTPConfig{Host: "127.0.0.1", Port: 2525})
	assert.NoError(t, p.Close())
	// Close is idempotent.
	assert.NoError(t, p.Close())
}
