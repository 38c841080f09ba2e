package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig holds OAuth2 credentials and sender identity for the Gmail
// API provider.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	FromAddress  string
	FromName     string
	Timeout      time.Duration
}

// GmailProvider delivers messages through the Gmail REST API using an
// OAuth2 refresh-token client. The RFC 822 payload is rendered with go-mail
// and submitted base64url-encoded, as the API requires.
type GmailProvider struct {
	cfg    GmailConfig
	source oauth2.TokenSource
	client *http.Client
}

// NewGmailProvider creates a provider from the given configuration. Token
// exchange happens lazily on the first Send or ValidateConfig call.
func NewGmailProvider(cfg GmailConfig) *GmailProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	source := conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &GmailProvider{
		cfg:    cfg,
		source: source,
		client: oauth2.NewClient(context.Background(), source),
	}
}

// Name returns the provider identifier.
func (p *GmailProvider) Name() string { return "gmail" }

// Send renders msg as a raw RFC 822 message and submits it via
// Users.Messages.Send on behalf of the authenticated account.
func (p *GmailProvider) Send(ctx context.Context, msg Message) DeliveryResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	m, err := buildMIME(msg, p.cfg.FromAddress, p.cfg.FromName)
	if err != nil {
		return Failed(p.Name(), time.Since(start), err.Error())
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return Failed(p.Name(), time.Since(start), "rendering message: "+err.Error())
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(p.client))
	if err != nil {
		return Failed(p.Name(), time.Since(start), "creating gmail service: "+err.Error())
	}

	sent, err := svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(buf.Bytes()),
	}).Context(ctx).Do()
	if err != nil {
		return Failed(p.Name(), time.Since(start), transportError(ctx, err))
	}

	return Succeeded(p.Name(), sent.Id, time.Since(start))
}

// ValidateConfig exchanges the refresh token for an access token. The probe
// hits the OAuth token endpoint only and cannot cause a delivery.
func (p *GmailProvider) ValidateConfig(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		_, err := p.source.Token()
		done <- err == nil
	}()

	select {
	case ok := <-done:
		return ok
	case <-ctx.Done():
		return false
	}
}
