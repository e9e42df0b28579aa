package graph

import (
	"context"
	"errors"
	"sync"

	"github.com/graph-gophers/graphql-go"

	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

// Subscriptions is the websocket-facing subscribe entry point. graphql-go
// renders errors returned by a subscription resolver without their
// extensions, so the typed code is restored here before a response
// reaches the client.
type Subscriptions struct {
	Schema *graphql.Schema
}

type failureKey struct{}

type subscribeFailure struct {
	mu  sync.Mutex
	err *apperr.Error
}

func (f *subscribeFailure) get() *apperr.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// recordSubscribeFailure remembers a typed error returned while opening a
// subscription stream. It returns err unchanged.
func recordSubscribeFailure(ctx context.Context, err error) error {
	f, ok := ctx.Value(failureKey{}).(*subscribeFailure)
	if !ok {
		return err
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		f.mu.Lock()
		f.err = ae
		f.mu.Unlock()
	}
	return err
}

func (s Subscriptions) Subscribe(ctx context.Context, document, operationName string, variables map[string]interface{}) (<-chan interface{}, error) {
	failure := &subscribeFailure{}
	stream, err := s.Schema.Subscribe(context.WithValue(ctx, failureKey{}, failure), document, operationName, variables)
	if err != nil {
		return nil, err
	}
	out := make(chan interface{})
	go func() {
		defer close(out)
		for msg := range stream {
			if resp, ok := msg.(*graphql.Response); ok {
				restoreCodes(resp, failure.get())
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func restoreCodes(resp *graphql.Response, recorded *apperr.Error) {
	for _, qe := range resp.Errors {
		if _, ok := qe.Extensions["code"]; ok {
			continue
		}
		var ae *apperr.Error
		switch {
		case errors.As(qe.ResolverError, &ae):
		case recorded != nil:
			ae = recorded
		default:
			continue
		}
		qe.Extensions = ae.Extensions()
	}
}
