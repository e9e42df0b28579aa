package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/observability"
)

// ErrNoPushProvider is returned when no provider is configured for a token.
var ErrNoPushProvider = errors.New("no push provider for token")

// Push is one device notification.
type Push struct {
	Title string
	Body  string
	Data  map[string]string
	Sound string
}

func (p Push) sound() string {
	if p.Sound == "" {
		return "default"
	}
	return p.Sound
}

// PushSender delivers a Push to one device token.
type PushSender interface {
	Name() string
	Send(ctx context.Context, token string, p Push) error
}

const expoTokenPrefix = "ExponentPushToken["

// IsExpoToken reports whether token was issued by the Expo push service.
func IsExpoToken(token string) bool {
	return strings.HasPrefix(token, expoTokenPrefix)
}

// PushRouter picks Expo or FCM by token format. Either side may be nil.
type PushRouter struct {
	expo   PushSender
	fcm    PushSender
	logger *zap.Logger
}

func NewPushRouter(expo, fcm PushSender, logger *zap.Logger) *PushRouter {
	return &PushRouter{expo: expo, fcm: fcm, logger: logger}
}

func (r *PushRouter) Name() string { return "router" }

func (r *PushRouter) Send(ctx context.Context, token string, p Push) error {
	sender := r.fcm
	if IsExpoToken(token) {
		sender = r.expo
	}
	if sender == nil {
		observability.PushResults.WithLabelValues("none", "skipped").Inc()
		return ErrNoPushProvider
	}

	err := sender.Send(ctx, token, p)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.PushResults.WithLabelValues(sender.Name(), outcome).Inc()
	return err
}
