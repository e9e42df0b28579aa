package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// ExpoSender delivers pushes to Expo-managed devices.
type ExpoSender struct {
	client *expo.PushClient
}

// bearerTransport adds the Expo access token to every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}

func NewExpoSender(accessToken string, timeout time.Duration) *ExpoSender {
	httpClient := &http.Client{Timeout: timeout}
	if accessToken != "" {
		httpClient.Transport = &bearerTransport{token: accessToken, base: http.DefaultTransport}
	}
	return &ExpoSender{client: expo.NewPushClient(&expo.ClientConfig{HTTPClient: httpClient})}
}

func (s *ExpoSender) Name() string { return "expo" }

// Send publishes one message. The SDK call is synchronous, so it runs in a
// goroutine to honor ctx.
func (s *ExpoSender) Send(ctx context.Context, token string, p Push) error {
	pushToken, err := expo.NewExponentPushToken(token)
	if err != nil {
		return fmt.Errorf("invalid expo token: %w", err)
	}

	msg := &expo.PushMessage{
		To:       []expo.ExponentPushToken{pushToken},
		Title:    p.Title,
		Body:     p.Body,
		Data:     p.Data,
		Sound:    p.sound(),
		Priority: expo.DefaultPriority,
	}

	done := make(chan error, 1)
	go func() {
		resp, err := s.client.Publish(msg)
		if err != nil {
			done <- fmt.Errorf("expo publish: %w", err)
			return
		}
		done <- resp.ValidateResponse()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
