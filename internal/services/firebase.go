package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/chachabrian/carpool-backend/internal/config"
)

// Firebase bundles the Admin SDK clients the API uses: ID token
// verification and FCM delivery.
type Firebase struct {
	App       *firebase.App
	Auth      *auth.Client
	Messaging *messaging.Client
}

// NewFirebase initializes the Admin SDK from a service account file.
func NewFirebase(ctx context.Context, cfg config.FirebaseConfig, logger *zap.Logger) (*Firebase, error) {
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting auth client: %w", err)
	}
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	logger.Info("firebase initialized", zap.String("project", cfg.ProjectID))
	return &Firebase{App: app, Auth: authClient, Messaging: msgClient}, nil
}

// FCMSender delivers pushes to native device tokens through Firebase
// Cloud Messaging.
type FCMSender struct {
	client    *messaging.Client
	channelID string
}

func NewFCMSender(client *messaging.Client, androidChannel string) *FCMSender {
	return &FCMSender{client: client, channelID: androidChannel}
}

func (s *FCMSender) Name() string { return "fcm" }

func (s *FCMSender) Send(ctx context.Context, token string, p Push) error {
	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data:    p.Data,
		Token:   token,
		Android: s.androidConfig(p),
		APNS:    apnsConfig(p),
	}
	if _, err := s.client.Send(ctx, message); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}

func (s *FCMSender) androidConfig(p Push) *messaging.AndroidConfig {
	sound := p.sound()
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:                 sound,
			ChannelID:             s.channelID,
			Priority:              messaging.PriorityHigh,
			DefaultSound:          sound == "default",
			DefaultVibrateTimings: true,
		},
	}
}

func apnsConfig(p Push) *messaging.APNSConfig {
	badge := 1
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:          p.sound(),
				Badge:          &badge,
				MutableContent: true,
			},
		},
	}
}
