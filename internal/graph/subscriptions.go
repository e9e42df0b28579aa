package graph

import (
	"context"

	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

type recipientArgs struct {
	RecipientID string
}

// open subscribes to kind for the caller. Streams are private: a caller
// can only listen on their own recipient id.
func (r *Resolver) open(ctx context.Context, kind realtime.Kind, recipientID string) (<-chan interface{}, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, recordSubscribeFailure(ctx, err)
	}
	if caller.UID != recipientID {
		return nil, recordSubscribeFailure(ctx, apperr.Forbiddenf("cannot subscribe to another user's %s events", kind))
	}
	return r.bus.Subscribe(ctx, realtime.Key(kind, recipientID)), nil
}

// typed narrows a bus stream to one payload type. It ends when the bus
// closes the stream or ctx is done.
func typed[T any](ctx context.Context, events <-chan interface{}) <-chan *T {
	out := make(chan *T)
	go func() {
		defer close(out)
		for ev := range events {
			v, ok := ev.(*T)
			if !ok {
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (r *Resolver) LocationReceived(ctx context.Context, args recipientArgs) (<-chan *dto.LocationData, error) {
	events, err := r.open(ctx, realtime.KindLocation, args.RecipientID)
	if err != nil {
		return nil, err
	}
	return typed[dto.LocationData](ctx, events), nil
}

func (r *Resolver) ForegroundNotification(ctx context.Context, args recipientArgs) (<-chan *dto.ForegroundNotification, error) {
	events, err := r.open(ctx, realtime.KindNotification, args.RecipientID)
	if err != nil {
		return nil, err
	}
	return typed[dto.ForegroundNotification](ctx, events), nil
}

func (r *Resolver) MessageSent(ctx context.Context, args recipientArgs) (<-chan *dto.Message, error) {
	events, err := r.open(ctx, realtime.KindMessage, args.RecipientID)
	if err != nil {
		return nil, err
	}
	return typed[dto.Message](ctx, events), nil
}

func (r *Resolver) GroupMessageSent(ctx context.Context, args recipientArgs) (<-chan *dto.GroupMessage, error) {
	events, err := r.open(ctx, realtime.KindGroupMessage, args.RecipientID)
	if err != nil {
		return nil, err
	}
	return typed[dto.GroupMessage](ctx, events), nil
}
