package notification

import (
	"bytes"
	"fmt"

	"github.com/wneessen/go-mail"
)

// buildMIME maps a Message onto a go-mail message, filling in the provider's
// default sender identity when the message omits one. Both the SMTP and the
// Gmail providers render their envelope through this path, so attachments
// and headers pass through without content transformation.
func buildMIME(msg Message, defaultFromAddr, defaultFromName string) (*mail.Msg, error) {
	m := mail.NewMsg()

	switch {
	case msg.From != "":
		if err := m.From(msg.From); err != nil {
			return nil, fmt.Errorf("invalid from address %q: %w", msg.From, err)
		}
	case defaultFromAddr != "":
		if err := m.FromFormat(defaultFromName, defaultFromAddr); err != nil {
			return nil, fmt.Errorf("invalid default sender %q: %w", defaultFromAddr, err)
		}
	default:
		return nil, fmt.Errorf("no sender address: message has no from and provider has no default")
	}

	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return nil, fmt.Errorf("invalid cc recipient: %w", err)
		}
	}
	if len(msg.BCC) > 0 {
		if err := m.Bcc(msg.BCC...); err != nil {
			return nil, fmt.Errorf("invalid bcc recipient: %w", err)
		}
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address %q: %w", msg.ReplyTo, err)
		}
	}

	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}

	for k, v := range msg.Headers {
		m.SetGenHeader(mail.Header(k), v)
	}

	for _, a := range msg.Attachments {
		var opts []mail.FileOption
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		var err error
		if a.Disposition == "inline" {
			err = m.EmbedReader(a.Filename, bytes.NewReader(a.Content), opts...)
		} else {
			err = m.AttachReader(a.Filename, bytes.NewReader(a.Content), opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("attaching %q: %w", a.Filename, err)
		}
	}

	m.SetMessageID()
	return m, nil
}
