package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const (
	sendgridDefaultBaseURL = "https://api.sendgrid.com"

	// sendgridFreeTierPerDay is the number of messages the SendGrid free
	// tier allows per day. Sends within the allowance carry zero cost;
	// pricing beyond the tier is provider-reported and not modeled here.
	sendgridFreeTierPerDay = 100
)

// SendGridConfig holds credentials and sender identity for the SendGrid
// provider. A config change requires constructing a new provider instance.
type SendGridConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string
	Timeout time.Duration
}

// SendGridProvider delivers messages through the SendGrid v3 Mail Send API.
type SendGridProvider struct {
	cfg    SendGridConfig
	client *http.Client
	sent   atomic.Int64
}

// NewSendGridProvider creates a provider from the given configuration.
func NewSendGridProvider(cfg SendGridConfig) *SendGridProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = sendgridDefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SendGridProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (p *SendGridProvider) Name() string { return "sendgrid" }

// Usage returns the number of messages accepted by the API since this
// provider instance was constructed.
func (p *SendGridProvider) Usage() int64 { return p.sent.Load() }

// WithinFreeTier reports whether the instance's usage is still inside the
// daily free allowance.
func (p *SendGridProvider) WithinFreeTier() bool {
	return p.sent.Load() <= sendgridFreeTierPerDay
}

// ── v3 Mail Send wire shapes ─────────────────────────────────────────────

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To  []sgAddress `json:"to"`
	CC  []sgAddress `json:"cc,omitempty"`
	BCC []sgAddress `json:"bcc,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgAttachment struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Type        string `json:"type,omitempty"`
	Disposition string `json:"disposition,omitempty"`
}

type sgMailRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	ReplyTo          *sgAddress          `json:"reply_to,omitempty"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
	Attachments      []sgAttachment      `json:"attachments,omitempty"`
	Headers          map[string]string   `json:"headers,omitempty"`
}

type sgErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

// Send delivers msg through the Mail Send endpoint. All failures, including
// an error payload embedded in an otherwise accepted response, come back as
// a failed DeliveryResult.
func (p *SendGridProvider) Send(ctx context.Context, msg Message) DeliveryResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	payload, err := p.buildPayload(msg)
	if err != nil {
		return Failed(p.Name(), time.Since(start), err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return Failed(p.Name(), time.Since(start), "building request: "+err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Failed(p.Name(), time.Since(start), transportError(ctx, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	// The API can carry an error payload even when the HTTP exchange itself
	// succeeded; an embedded errors array always means the send failed.
	if apiErr := sendgridAPIError(body); apiErr != "" {
		return Failed(p.Name(), time.Since(start), "sendgrid api error: "+apiErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Failed(p.Name(), time.Since(start),
			fmt.Sprintf("sendgrid returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	messageID := resp.Header.Get("X-Message-Id")
	if messageID == "" {
		// The API returns X-Message-Id on every accepted send; keep the
		// success invariant if a proxy strips it.
		messageID = "sendgrid-accepted"
	}

	p.sent.Add(1)
	return Succeeded(p.Name(), messageID, time.Since(start))
}

// ValidateConfig probes the API-key scopes endpoint. It touches credentials
// only and cannot cause a delivery.
func (p *SendGridProvider) ValidateConfig(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/v3/scopes", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 16<<10))

	return resp.StatusCode == http.StatusOK
}

// buildPayload translates the Message model into the v3 wire shape: every
// recipient list becomes a sequence, the default sender identity fills in
// when the message omits one, and attachment content is passed through with
// only the base64 wrapping the API requires.
func (p *SendGridProvider) buildPayload(msg Message) ([]byte, error) {
	from := sgAddress{Email: msg.From}
	if from.Email == "" {
		from = sgAddress{Email: p.cfg.FromAddress, Name: p.cfg.FromName}
	}
	if from.Email == "" {
		return nil, fmt.Errorf("no sender address: message has no from and provider has no default")
	}

	reqBody := sgMailRequest{
		Personalizations: []sgPersonalization{{
			To:  sgAddresses(msg.To),
			CC:  sgAddresses(msg.CC),
			BCC: sgAddresses(msg.BCC),
		}},
		From:    from,
		Subject: msg.Subject,
		Headers: msg.Headers,
	}

	if msg.ReplyTo != "" {
		reqBody.ReplyTo = &sgAddress{Email: msg.ReplyTo}
	}
	if msg.TextBody != "" {
		reqBody.Content = append(reqBody.Content, sgContent{Type: "text/plain", Value: msg.TextBody})
	}
	if msg.HTMLBody != "" {
		reqBody.Content = append(reqBody.Content, sgContent{Type: "text/html", Value: msg.HTMLBody})
	}

	for _, a := range msg.Attachments {
		disposition := a.Disposition
		if disposition == "" {
			disposition = "attachment"
		}
		reqBody.Attachments = append(reqBody.Attachments, sgAttachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Filename:    a.Filename,
			Type:        a.ContentType,
			Disposition: disposition,
		})
	}

	return json.Marshal(reqBody)
}

// sgAddresses wraps a list of plain addresses into the API's address
// objects. A single recipient still becomes a one-element sequence.
func sgAddresses(addrs []string) []sgAddress {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]sgAddress, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, sgAddress{Email: a})
	}
	return out
}

// sendgridAPIError extracts the first error message from a response body,
// or returns "" when the body carries no error payload.
func sendgridAPIError(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb sgErrorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(eb.Errors))
	for _, e := range eb.Errors {
		if e.Field != "" {
			parts = append(parts, fmt.Sprintf("%s (field %s)", e.Message, e.Field))
			continue
		}
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}
