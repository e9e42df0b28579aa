// Package chat stores private and group messages and fans them out to the
// recipients' realtime channels.
package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/notify"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/repository"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

const (
	maxMessageRunes = 2000
	historyLimit    = 200
	previewRunes    = 120
)

// Pusher sends a device push without a foreground bus copy.
type Pusher interface {
	Push(ctx context.Context, n notify.Notification)
}

type Service struct {
	repo   *repository.Repository
	bus    realtime.Publisher
	pusher Pusher
	logger *zap.Logger
}

func NewService(repo *repository.Repository, bus realtime.Publisher, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{repo: repo, bus: bus, pusher: pusher, logger: logger}
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Invalidf("message text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		return "", apperr.Invalidf("message is longer than %d characters", maxMessageRunes)
	}
	return text, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}

// SendMessage stores a private message and delivers it on the recipient's
// message channel, plus a "New Message" push.
func (s *Service) SendMessage(ctx context.Context, caller *auth.Identity, recipientID, text string) (*models.Message, error) {
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}
	if recipientID == caller.UID {
		return nil, apperr.Invalidf("cannot message yourself")
	}
	recipient, err := s.repo.User.GetByID(ctx, recipientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("user %s not found", recipientID)
	}
	if err != nil {
		return nil, err
	}

	msg := &models.Message{SenderID: caller.UID, RecipientID: recipientID, Text: text}
	if err := s.repo.Message.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.bus.Publish(realtime.Key(realtime.KindMessage, recipientID), dto.FromMessage(msg))

	title := notify.TitleNewMessage
	if msg.Sender != nil {
		title = notify.TitleNewMessage + " from " + msg.Sender.FirstName
	}
	s.pusher.Push(ctx, notify.Notification{
		Recipient: recipient,
		SenderID:  caller.UID,
		Title:     title,
		Body:      preview(text),
		Category:  models.CategoryChat,
		Type:      "MESSAGE",
	})
	return msg, nil
}

// Conversation returns the messages between two users. The caller must be
// one of them.
func (s *Service) Conversation(ctx context.Context, caller *auth.Identity, userA, userB string) ([]models.Message, error) {
	if caller.UID != userA && caller.UID != userB {
		return nil, apperr.Forbiddenf("not a participant of this conversation")
	}
	return s.repo.Message.Conversation(ctx, userA, userB, historyLimit)
}

func (s *Service) requireMember(ctx context.Context, caller *auth.Identity, groupID string) error {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("group %s not found", groupID)
		}
		return err
	}
	ok, err := s.repo.Group.IsMember(ctx, groupID, caller.UID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbiddenf("not a member of group %s", groupID)
	}
	return nil
}

// SendGroupMessage stores the message and publishes it once per member
// channel. The sender does not get a copy.
func (s *Service) SendGroupMessage(ctx context.Context, caller *auth.Identity, groupID, text string) (*models.GroupMessage, error) {
	text, err := cleanText(text)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, caller, groupID); err != nil {
		return nil, err
	}

	msg := &models.GroupMessage{GroupID: groupID, SenderID: caller.UID, Message: text}
	if err := s.repo.Message.CreateGroupMessage(ctx, msg); err != nil {
		return nil, err
	}

	members, err := s.repo.Group.MemberIDs(ctx, groupID)
	if err != nil {
		s.logger.Warn("load group members for fan-out", zap.String("group_id", groupID), zap.Error(err))
		return msg, nil
	}
	payload := dto.FromGroupMessage(msg)
	for _, id := range members {
		if id == caller.UID {
			continue
		}
		s.bus.Publish(realtime.Key(realtime.KindGroupMessage, id), payload)
	}
	return msg, nil
}

func (s *Service) GroupMessages(ctx context.Context, caller *auth.Identity, groupID string) ([]models.GroupMessage, error) {
	if err := s.requireMember(ctx, caller, groupID); err != nil {
		return nil, err
	}
	return s.repo.Message.ListGroupMessages(ctx, groupID, historyLimit)
}
