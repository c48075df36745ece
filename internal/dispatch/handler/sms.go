package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/notifyhub/notifyhub/internal/dispatch"
	"github.com/notifyhub/notifyhub/internal/models"
)

// SMSConfig holds Twilio settings.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	HTTPClient *http.Client
}

// SMS is the ChannelHandler for the SMS channel, submitting via Twilio's
// REST API the way the teacher's SMSProvider targets Twilio.
type SMS struct {
	cfg SMSConfig
}

// NewSMS builds an SMS handler.
func NewSMS(cfg SMSConfig) *SMS {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &SMS{cfg: cfg}
}

func (s *SMS) Channel() models.Channel { return models.ChannelSMS }

// CanHandle requires a non-empty recipient phone number.
func (s *SMS) CanHandle(_ context.Context, _ *models.Notification, recipient *models.User) bool {
	return recipient != nil && recipient.Phone != ""
}

func (s *SMS) Send(ctx context.Context, n *models.Notification, recipient *models.User) dispatch.Outcome {
	body := n.Content
	if n.Subject != "" {
		body = n.Subject + ": " + n.Content
	}

	form := url.Values{}
	form.Set("To", recipient.Phone)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: err.Error()}
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return dispatch.Outcome{Kind: dispatch.Success}
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: decodeTwilioError(resp)}
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		return dispatch.Outcome{Kind: dispatch.PermanentFailure, Reason: decodeTwilioError(resp)}
	default:
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: decodeTwilioError(resp)}
	}
}

func decodeTwilioError(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return resp.Status
	}
	return body.Message
}
