package chat

import (
	"context"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

const inboxScanLimit = 1000

// Conversation is one inbox entry: the other participant and the messages
// exchanged with them, oldest first.
type Conversation struct {
	With     *models.User
	WithID   string
	Messages []models.Message
}

// Conversations groups the user's private messages by counterpart, most
// recently active first. Only the user can read their own inbox.
func (s *Service) Conversations(ctx context.Context, caller *auth.Identity, userID string) ([]Conversation, error) {
	if caller.UID != userID {
		return nil, apperr.Forbiddenf("cannot read another user's conversations")
	}
	msgs, err := s.repo.Message.ListForUser(ctx, userID, inboxScanLimit)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var convos []Conversation
	for _, m := range msgs {
		otherID, other := m.RecipientID, m.Recipient
		if m.RecipientID == userID {
			otherID, other = m.SenderID, m.Sender
		}
		i, ok := index[otherID]
		if !ok {
			i = len(convos)
			index[otherID] = i
			convos = append(convos, Conversation{With: other, WithID: otherID})
		}
		convos[i].Messages = append(convos[i].Messages, m)
	}
	for i := range convos {
		reverse(convos[i].Messages)
	}
	return convos, nil
}

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
