package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/repository"
	"github.com/fastygo/users/repository/repotest"
)

func TestUserRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.UserRepository {
		return NewUserRepository()
	})
}

func TestConcurrentSavesGetUniqueIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	const workers = 32
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			saved, err := repo.Save(ctx, repotest.NewUser("w", domain.NewDate(1990, time.January, 1)))
			if err == nil {
				ids <- saved.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, workers)
}

func TestFindAllIsASnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	_, err := repo.Save(ctx, repotest.NewUser("a", domain.NewDate(1990, time.January, 1)))
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	all[0].FirstName = "mutated"

	again, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].FirstName)
}
