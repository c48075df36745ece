package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/notifyhub/notifyhub/internal/dispatch"
	"github.com/notifyhub/notifyhub/internal/models"
)

// PushConfig holds FCM settings. APNS is not wired here — the teacher's
// PushProvider supports both but only FCM has a plain HTTP REST surface
// simple enough to ground a handler on without a vendor SDK.
type PushConfig struct {
	FCMServerKey string
	HTTPClient   *http.Client
}

// Push is the ChannelHandler for the push channel, submitting via FCM's
// legacy HTTP API the way the teacher's PushProvider does for Android.
type Push struct {
	cfg PushConfig
}

// NewPush builds a Push handler.
func NewPush(cfg PushConfig) *Push {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Push{cfg: cfg}
}

func (p *Push) Channel() models.Channel { return models.ChannelPush }

// CanHandle requires a registered device token.
func (p *Push) CanHandle(_ context.Context, _ *models.Notification, recipient *models.User) bool {
	return recipient != nil && recipient.DeviceToken != ""
}

type fcmPayload struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (p *Push) Send(ctx context.Context, n *models.Notification, recipient *models.User) dispatch.Outcome {
	payload := fcmPayload{
		To: recipient.DeviceToken,
		Notification: fcmNotification{
			Title: n.Subject,
			Body:  n.Content,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://fcm.googleapis.com/fcm/send", bytes.NewReader(body))
	if err != nil {
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: err.Error()}
	}
	req.Header.Set("Authorization", "key="+p.cfg.FCMServerKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: resp.Status}
	}
	if resp.StatusCode != http.StatusOK {
		return dispatch.Outcome{Kind: dispatch.PermanentFailure, Reason: resp.Status}
	}

	var fcmResp fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&fcmResp); err != nil {
		return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: err.Error()}
	}
	if fcmResp.Failure > 0 && len(fcmResp.Results) > 0 {
		reason := fcmResp.Results[0].Error
		switch reason {
		case "NotRegistered", "InvalidRegistration":
			return dispatch.Outcome{Kind: dispatch.PermanentFailure, Reason: reason}
		default:
			return dispatch.Outcome{Kind: dispatch.TransientFailure, Reason: reason}
		}
	}

	return dispatch.Outcome{Kind: dispatch.Success}
}
