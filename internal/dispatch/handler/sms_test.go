package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/notifyhub/notifyhub/internal/dispatch"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/stretchr/testify/assert"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func fakeClient(status int, body string) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
			}, nil
		}),
	}
}

func TestSMS_CanHandle_RequiresPhone(t *testing.T) {
	s := NewSMS(SMSConfig{})
	assert.False(t, s.CanHandle(context.Background(), nil, &models.User{}))
	assert.True(t, s.CanHandle(context.Background(), nil, &models.User{Phone: "+15551234567"}))
	assert.False(t, s.CanHandle(context.Background(), nil, nil))
}

func TestSMS_Send_SuccessOn2xx(t *testing.T) {
	s := NewSMS(SMSConfig{AccountSID: "sid", AuthToken: "tok", FromNumber: "+1", HTTPClient: fakeClient(201, `{}`)})
	out := s.Send(context.Background(), &models.Notification{Content: "hi"}, &models.User{Phone: "+15551234567"})
	assert.Equal(t, dispatch.Success, out.Kind)
}

func TestSMS_Send_PermanentOn400(t *testing.T) {
	s := NewSMS(SMSConfig{AccountSID: "sid", AuthToken: "tok", HTTPClient: fakeClient(400, `{"message":"invalid number"}`)})
	out := s.Send(context.Background(), &models.Notification{Content: "hi"}, &models.User{Phone: "bad"})
	assert.Equal(t, dispatch.PermanentFailure, out.Kind)
	assert.Equal(t, "invalid number", out.Reason)
}

func TestSMS_Send_TransientOn5xx(t *testing.T) {
	s := NewSMS(SMSConfig{AccountSID: "sid", AuthToken: "tok", HTTPClient: fakeClient(503, `{}`)})
	out := s.Send(context.Background(), &models.Notification{Content: "hi"}, &models.User{Phone: "+15551234567"})
	assert.Equal(t, dispatch.TransientFailure, out.Kind)
}

func TestSMS_Send_TransientOn429(t *testing.T) {
	s := NewSMS(SMSConfig{AccountSID: "sid", AuthToken: "tok", HTTPClient: fakeClient(429, `{}`)})
	out := s.Send(context.Background(), &models.Notification{Content: "hi"}, &models.User{Phone: "+15551234567"})
	assert.Equal(t, dispatch.TransientFailure, out.Kind)
}
