package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/examhub/examhub-api/pkg/errors"
)

// Without a Redis client every operation degrades to a miss or a no-op so the
// API keeps serving when the cache is down.
func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]int
	err := repo.Get(ctx, "papers:values", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "papers:values", map[string]int{"a": 1}, 0))
	require.NoError(t, repo.DeleteByPattern(ctx, "papers:*"))
	require.NoError(t, repo.Close())
}
