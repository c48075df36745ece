package handler

import (
	"context"

	"github.com/notifyhub/notifyhub/internal/dispatch"
	"github.com/notifyhub/notifyhub/internal/models"
)

// InApp is the ChannelHandler for the in_app channel. Unlike the other
// channels there is no external provider to call: the notification already
// lives in NotificationStore, and the user's inbox view is just reading it
// back. Send is effectively a no-op that reports success, mirroring how the
// teacher's InAppProvider treats the DB write as the delivery and tolerates
// websocket push failure since the record is already durable.
type InApp struct{}

// NewInApp builds an InApp handler.
func NewInApp() *InApp { return &InApp{} }

func (i *InApp) Channel() models.Channel { return models.ChannelInApp }

// CanHandle accepts any notification whose recipient was found; in-app
// delivery needs no email address, phone number or device token.
func (i *InApp) CanHandle(_ context.Context, _ *models.Notification, recipient *models.User) bool {
	return recipient != nil
}

func (i *InApp) Send(_ context.Context, _ *models.Notification, _ *models.User) dispatch.Outcome {
	return dispatch.Outcome{Kind: dispatch.Success}
}
