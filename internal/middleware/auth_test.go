package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/examhub/examhub-api/internal/authz"
	"github.com/examhub/examhub-api/internal/models"
	appErrors "github.com/examhub/examhub-api/pkg/errors"
)

type resolverStub struct {
	actor *models.User
	err   error
}

func (r *resolverStub) ResolveActor(context.Context, string) (*models.User, error) {
	return r.actor, r.err
}

func run(middlewareFn gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, bool, *models.User) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	router := gin.New()

	var reached bool
	var actor *models.User
	router.GET("/probe", middlewareFn, func(c *gin.Context) {
		reached = true
		actor = ActorFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(rec, req)
	return rec, reached, actor
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	rec, reached, _ := run(Auth(&resolverStub{}), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	rec, reached, _ := run(Auth(&resolverStub{}), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthAttachesActor(t *testing.T) {
	user := &models.User{ID: "u1", Email: "asha@example.com"}
	rec, reached, actor := run(Auth(&resolverStub{actor: user}), "Bearer token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, "u1", actor.ID)
}

func TestAuthPropagatesResolverError(t *testing.T) {
	rec, reached, _ := run(Auth(&resolverStub{err: appErrors.ErrUnauthorized}), "Bearer expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestOptionalAuthPassesThroughAnonymous(t *testing.T) {
	rec, reached, actor := run(OptionalAuth(&resolverStub{err: errors.New("bad token")}), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Nil(t, actor)
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	rec, reached, actor := run(OptionalAuth(&resolverStub{err: errors.New("bad token")}), "Bearer junk")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Nil(t, actor)
}

func TestRequireAdminDistinguishesAnonymousFromForbidden(t *testing.T) {
	policy := authz.NewPolicy([]string{"admin@example.com"})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/anon", RequireAdmin(policy), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/student", func(c *gin.Context) {
		c.Set(ContextActorKey, &models.User{ID: "u1", Email: "student@example.com"})
	}, RequireAdmin(policy), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/admin", func(c *gin.Context) {
		c.Set(ContextActorKey, &models.User{ID: "u9", Email: "admin@example.com"})
	}, RequireAdmin(policy), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anon", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
