package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/graph"
)

// GraphQL serves queries and mutations over POST and upgrades websocket
// requests to the graphql-ws subscription protocol. The socket handshake
// carries the token in the Authorization header or ?token=.
func GraphQL(schema *graphql.Schema, verifier auth.Verifier, logger *zap.Logger) gin.HandlerFunc {
	contextFor := graphqlws.ContextGeneratorFunc(func(ctx context.Context, r *http.Request) (context.Context, error) {
		if id := auth.FromContext(r.Context()); id != nil {
			return auth.WithIdentity(ctx, id), nil
		}
		token := auth.TokenFromRequest(r)
		if token == "" {
			return ctx, nil
		}
		id, err := verifier.Verify(ctx, token)
		if err != nil {
			logger.Debug("subscription token rejected", zap.Error(err))
			return nil, err
		}
		return auth.WithIdentity(ctx, id), nil
	})

	h := graphqlws.NewHandlerFunc(graph.Subscriptions{Schema: schema}, &relay.Handler{Schema: schema}, graphqlws.WithContextGenerator(contextFor))
	return gin.WrapF(h)
}
