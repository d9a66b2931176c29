package redis

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/repository"
	"github.com/fastygo/users/repository/memory"
	"github.com/fastygo/users/repository/repotest"
)

// unreachableClient points at a port nothing listens on, so every cache call fails fast.
func unreachableClient(t *testing.T) *redislib.Client {
	t.Helper()
	client := redislib.NewClient(&redislib.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCacheOutageFallsBackToRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.UserRepository {
		return NewCachedUserRepository(memory.NewUserRepository(), unreachableClient(t), time.Minute, nil)
	})
}

func TestCacheKeys(t *testing.T) {
	repo := NewCachedUserRepository(memory.NewUserRepository(), unreachableClient(t), 0, nil).(*cachedUserRepository)

	assert.Equal(t, "user:42", repo.key(42))
	assert.Equal(t, time.Minute, repo.ttl)
}

func TestCachePassesThroughErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewCachedUserRepository(memory.NewUserRepository(), unreachableClient(t), time.Minute, nil)

	_, err := repo.FindByID(ctx, 5)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}
