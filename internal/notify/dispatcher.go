// Package notify delivers user-facing notifications: a foreground event on
// the realtime bus and, when allowed, a device push.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

const (
	TitleTripUpdate    = "Carpool Update"
	TitleTripCompleted = "Carpool Completed"
	TitleNewMessage    = "New Message"
)

// Preferences looks up a user's push settings.
type Preferences interface {
	GetPreferences(ctx context.Context, userID string) (*models.NotificationPreference, error)
}

// Notification is one message addressed to one user.
type Notification struct {
	Recipient *models.User
	SenderID  string
	Title     string
	Body      string
	Category  models.Category
	Type      string
	CarpoolID string
}

type Dispatcher struct {
	bus         realtime.Publisher
	push        services.PushSender
	prefs       Preferences
	pushTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDispatcher accepts a nil push sender when no provider is configured.
func NewDispatcher(bus realtime.Publisher, push services.PushSender, prefs Preferences, pushTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		bus:         bus,
		push:        push,
		prefs:       prefs,
		pushTimeout: pushTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Deliver publishes the foreground event and then attempts the push.
// Push failures are logged and never returned.
func (d *Dispatcher) Deliver(ctx context.Context, n Notification) {
	if n.Recipient == nil {
		return
	}
	fg := &dto.ForegroundNotification{
		Message:   n.Body,
		Timestamp: d.now().UTC().Format(time.RFC3339),
		SenderID:  n.SenderID,
	}
	if n.Type != "" {
		fg.Type = &n.Type
	}
	if n.CarpoolID != "" {
		fg.CarpoolID = &n.CarpoolID
	}
	d.bus.Publish(realtime.Key(realtime.KindNotification, n.Recipient.ID), fg)

	d.sendPush(ctx, n)
}

// Push sends only the device push, for events whose foreground copy travels
// on another bus kind (chat messages).
func (d *Dispatcher) Push(ctx context.Context, n Notification) {
	if n.Recipient == nil {
		return
	}
	d.sendPush(ctx, n)
}

func (d *Dispatcher) sendPush(ctx context.Context, n Notification) {
	token := n.Recipient.PushToken()
	if token == "" || d.push == nil {
		return
	}
	log := d.logger.With(zap.String("recipient_id", n.Recipient.ID), zap.String("type", n.Type))

	if d.prefs != nil {
		pref, err := d.prefs.GetPreferences(ctx, n.Recipient.ID)
		if err != nil {
			log.Warn("load notification preferences", zap.Error(err))
		} else if !pref.Allows(n.Category) {
			log.Debug("push muted by preferences")
			return
		}
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.pushTimeout)
	defer cancel()
	err := d.push.Send(pushCtx, token, services.Push{
		Title: n.Title,
		Body:  n.Body,
		Data:  map[string]string{"senderId": n.SenderID},
		Sound: "default",
	})
	if err != nil {
		log.Warn("push delivery failed",
			zap.String("code", string(apperr.Downstream)),
			zap.Error(err),
		)
	}
}
