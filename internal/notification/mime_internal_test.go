package notification

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderMIME(t *testing.T, msg Message, fromAddr, fromName string) string {
	t.Helper()
	m, err := buildMIME(msg, fromAddr, fromName)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestBuildMIME_EnvelopeAndBodies(t *testing.T) {
	msg := Message{
		To:       []string{"user@example.com"},
		From:     "noreply@svc.com",
		Subject:  "Welcome",
		TextBody: "Hi",
		HTMLBody: "<p>Hi</p>",
		CC:       []string{"cc@example.com"},
		ReplyTo:  "support@svc.com",
		Headers:  map[string]string{"X-Campaign": "onboarding"},
	}

	out := renderMIME(t, msg, "", "")

	assert.Contains(t, out, "To: <user@example.com>")
	assert.Contains(t, out, "From: <noreply@svc.com>")
	assert.Contains(t, out, "Cc: <cc@example.com>")
	assert.Contains(t, out, "Reply-To: <support@svc.com>")
	assert.Contains(t, out, "Subject: Welcome")
	assert.Contains(t, out, "X-Campaign: onboarding")
	assert.Contains(t, out, "Hi")
	assert.Contains(t, out, "<p>Hi</p>")
}

func TestBuildMIME_DefaultSenderComposition(t *testing.T) {
	msg := Message{To: []string{"user@example.com"}, TextBody: "Hi"}

	out := renderMIME(t, msg, "noreply@svc.com", "Svc Mailer")
	assert.Contains(t, out, `"Svc Mailer" <noreply@svc.com>`)
}

func TestBuildMIME_NoSenderAnywhere(t *testing.T) {
	msg := Message{To: []string{"user@example.com"}, TextBody: "Hi"}

	_, err := buildMIME(msg, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sender address")
}

func TestBuildMIME_AttachmentPassThrough(t *testing.T) {
	msg := Message{
		To:       []string{"user@example.com"},
		From:     "noreply@svc.com",
		TextBody: "see attached",
		Attachments: []Attachment{
			{Filename: "report.csv", Content: []byte("a,b\n1,2\n"), ContentType: "text/csv"},
		},
	}

	out := renderMIME(t, msg, "", "")
	assert.Contains(t, out, "report.csv")
	assert.Contains(t, out, "text/csv")
}

func TestBuildMIME_AssignsMessageID(t *testing.T) {
	msg := Message{To: []string{"user@example.com"}, From: "noreply@svc.com", TextBody: "Hi"}

	m, err := buildMIME(msg, "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, m.GetMessageID())
}

func TestTLSPolicyFromEncryption(t *testing.T) {
	assert.Equal(t, tlsPolicyFromEncryption("ssl_tls").String(), "TLSMandatory")
	assert.Equal(t, tlsPolicyFromEncryption("starttls").String(), "TLSOpportunistic")
	assert.Equal(t, tlsPolicyFromEncryption("none").String(), "NoTLS")
	assert.Equal(t, tlsPolicyFromEncryption("").String(), "NoTLS")
}
