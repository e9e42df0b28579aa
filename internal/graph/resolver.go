// Package graph is the GraphQL surface. Every resolver authenticates the
// caller, delegates to a service and maps the result onto dto types.
package graph

import (
	"context"
	_ "embed"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/carpool"
	"github.com/chachabrian/carpool-backend/internal/chat"
	"github.com/chachabrian/carpool-backend/internal/community"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/tracker"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

//go:embed schema.graphql
var schemaSDL string

type Resolver struct {
	carpools  *carpool.Engine
	tracker   *tracker.Tracker
	chat      *chat.Service
	community *community.Service
	bus       realtime.Subscriber
	logger    *zap.Logger
}

func NewResolver(
	carpools *carpool.Engine,
	tr *tracker.Tracker,
	chatSvc *chat.Service,
	communitySvc *community.Service,
	bus realtime.Subscriber,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		carpools:  carpools,
		tracker:   tr,
		chat:      chatSvc,
		community: communitySvc,
		bus:       bus,
		logger:    logger,
	}
}

// NewSchema parses the embedded SDL against r. maxDepth bounds query
// nesting; zero disables the limit.
func NewSchema(r *Resolver, maxDepth int) (*graphql.Schema, error) {
	opts := []graphql.SchemaOpt{graphql.UseFieldResolvers()}
	if maxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(maxDepth))
	}
	return graphql.ParseSchema(schemaSDL, r, opts...)
}

// fail logs untyped errors and hides their text from the caller.
func (r *Resolver) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.CodeOf(err) == apperr.Internal {
		r.logger.Error("resolver failed", zap.String("op", op), zap.Error(err))
	}
	return apperr.Public(err)
}

func (r *Resolver) caller(ctx context.Context) (*auth.Identity, error) {
	return auth.Require(ctx)
}
