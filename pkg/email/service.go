package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tair/replenishment/pkg/breaker"
	"github.com/tair/replenishment/pkg/logger"
)

// ErrNotConfigured is returned when no API key or sender address is set
var ErrNotConfigured = errors.New("email service not configured")

// Gateway delivers a single message to one recipient
type Gateway interface {
	Send(ctx context.Context, toEmail, subject, htmlBody, fromName string) error
}

// Config holds Resend API settings
type Config struct {
	APIKey      string
	FromAddress string
	Endpoint    string
	Timeout     time.Duration
}

// Service sends emails via the Resend API
type Service struct {
	cfg    Config
	client *http.Client
}

// NewService creates a new email service instance
func NewService(cfg Config) *Service {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.resend.com/emails"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// IsConfigured checks if the email service is properly configured
func (s *Service) IsConfigured() bool {
	return s.cfg.APIKey != "" && s.cfg.FromAddress != ""
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts one message. fromName, when set, is rendered as the display name
// in front of the configured sender address.
func (s *Service) Send(ctx context.Context, toEmail, subject, htmlBody, fromName string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if toEmail == "" {
		return fmt.Errorf("recipient address is required")
	}

	from := s.cfg.FromAddress
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, s.cfg.FromAddress)
	}

	payload, err := json.Marshal(sendEmailRequest{
		From:    from,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}

	logger.Debug(ctx).
		Str("to", toEmail).
		Str("subject", subject).
		Msg("Email accepted by provider")
	return nil
}

// GuardedGateway wraps a Gateway with a circuit breaker so a failing provider
// is not hammered by retries of the send action.
type GuardedGateway struct {
	next    Gateway
	breaker *breaker.CircuitBreaker
}

// NewGuardedGateway wraps next with cb
func NewGuardedGateway(next Gateway, cb *breaker.CircuitBreaker) *GuardedGateway {
	return &GuardedGateway{next: next, breaker: cb}
}

// Send implements Gateway
func (g *GuardedGateway) Send(ctx context.Context, toEmail, subject, htmlBody, fromName string) error {
	return g.breaker.Call(func() error {
		return g.next.Send(ctx, toEmail, subject, htmlBody, fromName)
	})
}
