package graph

import (
	"context"

	"github.com/chachabrian/carpool-backend/internal/dto"
)

func (r *Resolver) CreateMessage(ctx context.Context, args struct{ RecipientID, Text string }) (*dto.Message, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := r.chat.SendMessage(ctx, caller, args.RecipientID, args.Text)
	if err != nil {
		return nil, r.fail("createMessage", err)
	}
	return dto.FromMessage(msg), nil
}

func (r *Resolver) GetPrivateMessageConversation(ctx context.Context, args struct{ UserID1, UserID2 string }) ([]*dto.Message, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := r.chat.Conversation(ctx, caller, args.UserID1, args.UserID2)
	if err != nil {
		return nil, r.fail("getPrivateMessageConversation", err)
	}
	out := make([]*dto.Message, 0, len(msgs))
	for i := range msgs {
		out = append(out, dto.FromMessage(&msgs[i]))
	}
	return out, nil
}

func (r *Resolver) CreateGroupMessage(ctx context.Context, args struct{ GroupID, Message string }) (*dto.GroupMessage, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := r.chat.SendGroupMessage(ctx, caller, args.GroupID, args.Message)
	if err != nil {
		return nil, r.fail("createGroupMessage", err)
	}
	return dto.FromGroupMessage(msg), nil
}

func (r *Resolver) GetGroupMessages(ctx context.Context, args struct{ GroupID string }) ([]*dto.GroupMessage, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := r.chat.GroupMessages(ctx, caller, args.GroupID)
	if err != nil {
		return nil, r.fail("getGroupMessages", err)
	}
	out := make([]*dto.GroupMessage, 0, len(msgs))
	for i := range msgs {
		out = append(out, dto.FromGroupMessage(&msgs[i]))
	}
	return out, nil
}

func (r *Resolver) GetConversationsForUser(ctx context.Context, args struct{ UserID string }) ([]*dto.Conversation, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	convos, err := r.chat.Conversations(ctx, caller, args.UserID)
	if err != nil {
		return nil, r.fail("getConversationsForUser", err)
	}
	out := make([]*dto.Conversation, 0, len(convos))
	for _, c := range convos {
		entry := &dto.Conversation{
			RecipientID: c.WithID,
			Recipient:   dto.FromUser(c.With),
			Messages:    make([]*dto.Message, 0, len(c.Messages)),
		}
		if c.With != nil {
			entry.RecipientName = c.With.DisplayName()
		}
		for i := range c.Messages {
			entry.Messages = append(entry.Messages, dto.FromMessage(&c.Messages[i]))
		}
		out = append(out, entry)
	}
	return out, nil
}
