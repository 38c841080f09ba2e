// Package notification defines the outbound message model, the delivery
// result, and the channel provider contract implemented by each transport.
package notification

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Attachment is a single file carried by an outbound message.
type Attachment struct {
	Filename    string `json:"filename" validate:"required"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type,omitempty"`
	// Disposition is "attachment" (default) or "inline".
	Disposition string `json:"disposition,omitempty" validate:"omitempty,oneof=attachment inline"`
}

// Message describes one outbound notification request. A Message is built
// per send request and not retained once the attempt completes.
type Message struct {
	To          []string          `json:"to" validate:"required,min=1,dive,email"`
	From        string            `json:"from,omitempty" validate:"omitempty,email"`
	Subject     string            `json:"subject"`
	TextBody    string            `json:"text_body,omitempty" validate:"required_without=HTMLBody"`
	HTMLBody    string            `json:"html_body,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty" validate:"omitempty,dive"`
	Headers     map[string]string `json:"headers,omitempty"`
	ReplyTo     string            `json:"reply_to,omitempty" validate:"omitempty,email"`
	CC          []string          `json:"cc,omitempty" validate:"omitempty,dive,email"`
	BCC         []string          `json:"bcc,omitempty" validate:"omitempty,dive,email"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the message against the model invariants: at least one
// recipient, well-formed addresses, and at least one body form. An invalid
// message is rejected here and never reaches a provider.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}
