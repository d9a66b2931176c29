// Package repotest holds the behavior every repository.UserRepository backend must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/repository"
)

// Factory returns a fresh, empty repository for one subtest.
type Factory func(t *testing.T) repository.UserRepository

// NewUser builds a valid, unsaved user.
func NewUser(first string, birthday domain.Date) *domain.User {
	return &domain.User{
		Email:     first + "@example.com",
		FirstName: first,
		LastName:  "Tester",
		Birthday:  birthday,
	}
}

// Run exercises the repository contract against backends built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("assigns increasing ids that are never reused", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		a, err := repo.Save(ctx, NewUser("a", domain.NewDate(1980, time.May, 1)))
		require.NoError(t, err)
		b, err := repo.Save(ctx, NewUser("b", domain.NewDate(1981, time.May, 1)))
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(2), b.ID)

		_, err = repo.DeleteByID(ctx, b.ID)
		require.NoError(t, err)
		_, err = repo.DeleteByID(ctx, a.ID)
		require.NoError(t, err)

		c, err := repo.Save(ctx, NewUser("c", domain.NewDate(1982, time.May, 1)))
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.ID)
	})

	t.Run("find by id returns copies", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		u := NewUser("a", domain.NewDate(1980, time.May, 1))
		u.Address = domain.StringPtr("Main st.")
		saved, err := repo.Save(ctx, u)
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.True(t, saved.Equal(got))
		assert.Equal(t, saved.ID, got.ID)

		*got.Address = "changed"
		got.FirstName = "changed"
		again, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "Main st.", *again.Address)
		assert.Equal(t, "a", again.FirstName)
		assert.Equal(t, int64(0), u.ID, "caller's record is not mutated")
	})

	t.Run("missing ids", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, 1)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
		assert.EqualError(t, err, "User (id=1) not found")

		ok, err := repo.Exists(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		missing, err := repository.NotExists(ctx, repo, 1)
		require.NoError(t, err)
		assert.True(t, missing)

		_, err = repo.DeleteByID(ctx, 1)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

		ghost := NewUser("ghost", domain.NewDate(1980, time.May, 1))
		ghost.ID = 7
		_, err = repo.Update(ctx, ghost)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
		_, err = repo.Save(ctx, ghost)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("save and update replace in place", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		for _, name := range []string{"a", "b", "c"} {
			_, err := repo.Save(ctx, NewUser(name, domain.NewDate(1990, time.January, 1)))
			require.NoError(t, err)
		}

		b, err := repo.FindByID(ctx, 2)
		require.NoError(t, err)
		b.FirstName = "bee"
		_, err = repo.Save(ctx, b)
		require.NoError(t, err)

		c, err := repo.FindByID(ctx, 3)
		require.NoError(t, err)
		c.Phone = domain.StringPtr("555")
		updated, err := repo.Update(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "555", *updated.Phone)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"a", "bee", "c"}, firstNames(all))
		assert.Equal(t, "555", *all[2].Phone)
	})

	t.Run("delete returns the removed record", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		saved, err := repo.Save(ctx, NewUser("a", domain.NewDate(1990, time.January, 1)))
		require.NoError(t, err)

		removed, err := repo.DeleteByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.True(t, saved.Equal(removed))

		_, err = repo.FindByID(ctx, saved.ID)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	})

	t.Run("birthday range is inclusive", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		days := []domain.Date{
			domain.NewDate(1970, time.January, 1),
			domain.NewDate(1980, time.June, 15),
			domain.NewDate(1990, time.December, 31),
		}
		for i, d := range days {
			_, err := repo.Save(ctx, NewUser(string(rune('a'+i)), d))
			require.NoError(t, err)
		}

		got, err := repo.FindByBirthdayBetween(ctx, days[0], days[1])
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, firstNames(got))

		got, err = repo.FindByBirthdayBetween(ctx, days[1], days[1])
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, firstNames(got))

		got, err = repo.FindByBirthdayBetween(ctx, domain.MinDate, domain.MaxDate)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, firstNames(got))

		got, err = repo.FindByBirthdayBetween(ctx, days[2].AddDays(1), domain.MaxDate)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func firstNames(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.FirstName)
	}
	return out
}
