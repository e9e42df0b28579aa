package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/observability"
)

// Writer phrases a notification from a prompt.
type Writer interface {
	Write(ctx context.Context, system, prompt string) (string, error)
}

const systemPrompt = "You write short, friendly push notifications for parents whose " +
	"children are in a school carpool. Reply with one or two sentences and no emoji."

// Composer asks the Writer for a message and falls back to a fixed
// template on any failure or after the timeout.
type Composer struct {
	writer  Writer
	timeout time.Duration
	logger  *zap.Logger
}

// NewComposer accepts a nil writer, in which case every call uses the
// template.
func NewComposer(writer Writer, timeout time.Duration, logger *zap.Logger) *Composer {
	return &Composer{writer: writer, timeout: timeout, logger: logger}
}

func (c *Composer) Compose(ctx context.Context, prompt, fallback string) string {
	if c == nil || c.writer == nil {
		return fallback
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.writer.Write(ctx, systemPrompt, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		observability.ComposerFallbacks.Inc()
		c.logger.Warn("notification composer fell back to template", zap.Error(err))
		return fallback
	}
	return text
}

// TripUpdateText is the template for leaving and near-stop events.
func TripUpdateText(driver, nextStop, at string) string {
	return fmt.Sprintf("Your carpool update: Driver %s is heading to %s at %s.", driver, nextStop, at)
}

// TripEndedText is the template for the arrival event.
func TripEndedText(driver, children, destination string) string {
	return fmt.Sprintf("The carpool, driven by %s, has ended. %s have arrived safely at %s.", driver, children, destination)
}

func TripUpdatePrompt(driver, nextStop, at string) string {
	return fmt.Sprintf("Driver %s has started the carpool and is heading to %s, expected at %s. "+
		"Tell the parent their child's ride is on the way.", driver, nextStop, at)
}

func TripEndedPrompt(driver, children, destination string) string {
	return fmt.Sprintf("The carpool driven by %s has ended. %s arrived safely at %s. "+
		"Tell the parent the trip is complete.", driver, children, destination)
}

// JoinNames renders ["A","B","C"] as "A, B and C".
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return "The children"
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
