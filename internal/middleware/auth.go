package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/examhub/examhub-api/internal/authz"
	"github.com/examhub/examhub-api/internal/models"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
	"github.com/examhub/examhub-api/pkg/response"
)

// ContextActorKey is the gin context key storing the resolved actor.
const ContextActorKey = "currentActor"

type actorResolver interface {
	ResolveActor(ctx context.Context, token string) (*models.User, error)
}

// Auth protects routes by requiring a valid access token whose subject still
// exists in the user store.
func Auth(resolver actorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// OptionalAuth attaches the actor when a valid token is present but never
// blocks the request. Used where access differs for authenticated callers,
// e.g. admin preview on downloads.
func OptionalAuth(resolver actorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// RequireAdmin gates admin endpoints. Missing actor yields 401 so callers
// can distinguish "not logged in" from "logged in but not admin".
func RequireAdmin(policy *authz.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !policy.IsAdmin(actor) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the resolved actor or nil for anonymous requests.
func ActorFromContext(c *gin.Context) *models.User {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil
	}
	actor, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return actor
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
