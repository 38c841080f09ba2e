package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds connection parameters for the direct SMTP provider.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Encryption  string // "none", "starttls", "ssl_tls"
	FromAddress string
	FromName    string
	Timeout     time.Duration
}

// SMTPProvider delivers messages over a direct SMTP session using go-mail.
// The underlying client is built lazily on first use so that connection
// setup failures surface on Send or ValidateConfig rather than at
// construction. The provider owns the cached client; Close releases it.
type SMTPProvider struct {
	cfg SMTPConfig

	mu     sync.Mutex
	client *mail.Client
}

// NewSMTPProvider creates a provider from the given configuration.
func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPProvider{cfg: cfg}
}

// Name returns the provider identifier.
func (p *SMTPProvider) Name() string { return "smtp" }

// lazyClient returns the cached mail client, building it on first call.
func (p *SMTPProvider) lazyClient() (*mail.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	opts := []mail.Option{
		mail.WithPort(p.cfg.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(p.cfg.Encryption)),
		mail.WithTimeout(p.cfg.Timeout),
	}
	if p.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(p.cfg.Username),
			mail.WithPassword(p.cfg.Password),
		)
	}

	c, err := mail.NewClient(p.cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	p.client = c
	return c, nil
}

// Send delivers msg over SMTP. Headers and attachments pass through
// directly; the transport accepts the same shapes as the Message model.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) DeliveryResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	m, err := buildMIME(msg, p.cfg.FromAddress, p.cfg.FromName)
	if err != nil {
		return Failed(p.Name(), time.Since(start), err.Error())
	}

	c, err := p.lazyClient()
	if err != nil {
		return Failed(p.Name(), time.Since(start), "building smtp client: "+err.Error())
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return Failed(p.Name(), time.Since(start), transportError(ctx, err))
	}

	return Succeeded(p.Name(), m.GetMessageID(), time.Since(start))
}

// ValidateConfig performs the SMTP handshake (dial, greet, auth) and
// disconnects. No message is submitted.
func (p *SMTPProvider) ValidateConfig(ctx context.Context) bool {
	c, err := p.lazyClient()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := c.DialWithContext(ctx); err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Close releases the cached SMTP connection, if any. The provider is not
// usable after Close.
func (p *SMTPProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	if err != nil && !errors.Is(err, mail.ErrNoActiveConnection) {
		return err
	}
	return nil
}

// tlsPolicyFromEncryption converts the encryption setting to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
