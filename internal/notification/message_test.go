package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/courier/internal/notification"
)

func validMessage() notification.Message {
	return notification.Message{
		To:       []string{"user@example.com"},
		From:     "noreply@svc.com",
		Subject:  "Welcome",
		TextBody: "Hi",
	}
}

func TestMessageValidate_OK(t *testing.T) {
	require.NoError(t, validMessage().Validate())
}

func TestMessageValidate_HTMLOnlyBodyIsEnough(t *testing.T) {
	msg := validMessage()
	msg.TextBody = ""
	msg.HTMLBody = "<p>Hi</p>"
	assert.NoError(t, msg.Validate())
}

func TestMessageValidate_RejectsNoBody(t *testing.T) {
	msg := validMessage()
	msg.TextBody = ""
	msg.HTMLBody = ""
	assert.Error(t, msg.Validate())
}

func TestMessageValidate_RejectsEmptyRecipients(t *testing.T) {
	msg := validMessage()
	msg.To = nil
	assert.Error(t, msg.Validate())

	msg.To = []string{}
	assert.Error(t, msg.Validate())
}

func TestMessageValidate_RejectsMalformedAddresses(t *testing.T) {
	msg := validMessage()
	msg.To = []string{"not-an-address"}
	assert.Error(t, msg.Validate())

	msg = validMessage()
	msg.CC = []string{"also not one"}
	assert.Error(t, msg.Validate())

	msg = validMessage()
	msg.ReplyTo = "nope"
	assert.Error(t, msg.Validate())
}

func TestMessageValidate_AttachmentNeedsFilename(t *testing.T) {
	msg := validMessage()
	msg.Attachments = []notification.Attachment{{Content: []byte("x")}}
	assert.Error(t, msg.Validate())

	msg.Attachments = []notification.Attachment{{Filename: "report.txt", Content: []byte("x")}}
	assert.NoError(t, msg.Validate())
}

func TestMessageValidate_AttachmentDisposition(t *testing.T) {
	msg := validMessage()
	msg.Attachments = []notification.Attachment{{Filename: "logo.png", Disposition: "inline"}}
	assert.NoError(t, msg.Validate())

	msg.Attachments = []notification.Attachment{{Filename: "logo.png", Disposition: "sideways"}}
	assert.Error(t, msg.Validate())
}
