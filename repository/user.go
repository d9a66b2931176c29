package repository

import (
	"context"

	"github.com/fastygo/users/domain"
)

// UserRepository owns the canonical user collection. Implementations return
// copies; callers never alias stored records.
type UserRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindAll lists every user in id order.
	FindAll(ctx context.Context) ([]domain.User, error)
	// Save inserts a user with id 0 under a fresh id, or replaces an existing one.
	// A nonzero id that is not stored yields domain.ErrCodeNotFound.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update replaces an existing user and never inserts.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	DeleteByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByBirthdayBetween lists users born within [from, to], both inclusive.
	FindByBirthdayBetween(ctx context.Context, from, to domain.Date) ([]domain.User, error)
}

// NotExists is the negation of Exists, kept for call sites that read better with it.
func NotExists(ctx context.Context, repo UserRepository, id int64) (bool, error) {
	ok, err := repo.Exists(ctx, id)
	return !ok, err
}

// InRange reports whether d lies within [from, to].
func InRange(d, from, to domain.Date) bool {
	return !d.Before(from) && !d.After(to)
}
