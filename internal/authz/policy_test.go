package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/examhub/examhub-api/internal/models"
)

func TestIsAdminMatchesCaseInsensitively(t *testing.T) {
	policy := NewPolicy([]string{" Admin@Example.com ", ""})

	assert.True(t, policy.IsAdmin(&models.User{Email: "admin@example.com"}))
	assert.True(t, policy.IsAdmin(&models.User{Email: "ADMIN@EXAMPLE.COM"}))
	assert.False(t, policy.IsAdmin(&models.User{Email: "student@example.com"}))
	assert.False(t, policy.IsAdmin(nil))
}

func TestCanDelete(t *testing.T) {
	policy := NewPolicy([]string{"admin@example.com"})
	paper := &models.Paper{ID: "p1", UploadedBy: "u1"}

	assert.True(t, policy.CanDelete(&models.User{ID: "u1"}, paper))
	assert.True(t, policy.CanDelete(&models.User{ID: "u9", Email: "admin@example.com"}, paper))
	assert.False(t, policy.CanDelete(&models.User{ID: "u2"}, paper))
	assert.False(t, policy.CanDelete(nil, paper))
}

func TestCanViewByStatus(t *testing.T) {
	policy := NewPolicy([]string{"admin@example.com"})

	approved := &models.Paper{UploadedBy: "u1", Status: models.StatusApproved}
	pending := &models.Paper{UploadedBy: "u1", Status: models.StatusPending}

	assert.True(t, policy.CanView(nil, approved))
	assert.False(t, policy.CanView(nil, pending))
	assert.False(t, policy.CanView(&models.User{ID: "u2"}, pending))
	assert.True(t, policy.CanView(&models.User{ID: "u1"}, pending))
	assert.True(t, policy.CanView(&models.User{ID: "u9", Email: "admin@example.com"}, pending))
}
