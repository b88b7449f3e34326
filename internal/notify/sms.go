package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSConfig holds Twilio credentials and the recipient phone number.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	To         string
}

// SMS sends text messages through the Twilio REST API.
type SMS struct {
	cfg     SMSConfig
	baseURL string
	client  *http.Client
}

// NewSMS validates cfg and constructs an SMS sink.
func NewSMS(cfg SMSConfig) (*SMS, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, fmt.Errorf("missing SMS configuration: AccountSID, AuthToken, or FromNumber is empty")
	}
	if !strings.HasPrefix(cfg.To, "+") {
		return nil, fmt.Errorf("%w: phone number %q", ErrInvalidRecipient, cfg.To)
	}
	return &SMS{
		cfg:     cfg,
		baseURL: "https://api.twilio.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Notify posts message to the Twilio Messages endpoint.
func (s *SMS) Notify(message string) error {
	urlStr := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.cfg.AccountSID)
	msgData := url.Values{}
	msgData.Set("To", s.cfg.To)
	msgData.Set("From", s.cfg.FromNumber)
	msgData.Set("Body", message)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, urlStr, strings.NewReader(msgData.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request for %s: %w", s.cfg.To, err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", s.cfg.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("twilio API returned status %d for %s", resp.StatusCode, s.cfg.To)
	}
	return nil
}
