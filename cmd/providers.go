package cmd

import (
	"errors"

	"github.com/shaharia-lab/courier/internal/config"
	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/notification"
)

var errNoProvidersConfigured = errors.New("no providers configured: set SENDGRID_API_KEY, SMTP_HOST, or the GMAIL_* credentials")

// buildProviders constructs the channel providers enabled by the
// configuration. A provider is registered only when its credentials are set.
func buildProviders(cfg *config.AppConfig) ([]notification.ChannelProvider, error) {
	var providers []notification.ChannelProvider

	if cfg.SendGrid.APIKey != "" {
		providers = append(providers, notification.NewSendGridProvider(notification.SendGridConfig{
			APIKey:      cfg.SendGrid.APIKey,
			FromAddress: cfg.SendGrid.FromAddress,
			FromName:    cfg.SendGrid.FromName,
			Timeout:     cfg.SendTimeout,
		}))
	}

	if cfg.SMTP.Host != "" {
		providers = append(providers, notification.NewSMTPProvider(notification.SMTPConfig{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			Encryption:  cfg.SMTP.Encryption,
			FromAddress: cfg.SMTP.FromAddress,
			FromName:    cfg.SMTP.FromName,
			Timeout:     cfg.SendTimeout,
		}))
	}

	if cfg.Gmail.ClientID != "" && cfg.Gmail.ClientSecret != "" && cfg.Gmail.RefreshToken != "" {
		providers = append(providers, notification.NewGmailProvider(notification.GmailConfig{
			ClientID:     cfg.Gmail.ClientID,
			ClientSecret: cfg.Gmail.ClientSecret,
			RefreshToken: cfg.Gmail.RefreshToken,
			FromAddress:  cfg.Gmail.FromAddress,
			FromName:     cfg.Gmail.FromName,
			Timeout:      cfg.SendTimeout,
		}))
	}

	if len(providers) == 0 {
		return nil, errNoProvidersConfigured
	}
	return providers, nil
}

// closeProviders releases any cached transport connections.
func closeProviders(providers []notification.ChannelProvider) {
	for _, p := range providers {
		if c, ok := p.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

// buildPolicy maps the operator routing policy onto the dispatcher policy.
func buildPolicy(rp *config.RoutingPolicy) (dispatch.Policy, error) {
	backoff, err := rp.Retry.BackoffDuration()
	if err != nil {
		return dispatch.Policy{}, err
	}
	return dispatch.Policy{
		Priority:      rp.Priority,
		MaxProviders:  rp.MaxProviders,
		RetryAttempts: rp.Retry.Attempts,
		RetryBackoff:  backoff,
	}, nil
}
