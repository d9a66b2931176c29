// Package memory keeps users in process memory. It is the default backend.
package memory

import (
	"context"
	"sync"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/repository"
)

type userRepository struct {
	mu     sync.Mutex
	lastID int64
	users  []domain.User
}

// NewUserRepository returns an empty in-memory repository. Every method holds
// one lock, so id assignment and insertion happen as a single step.
func NewUserRepository() repository.UserRepository {
	return &userRepository{}
}

func (r *userRepository) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(id) >= 0, nil
}

func (r *userRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.UserNotFound(id)
	}
	return r.users[i].Clone(), nil
}

func (r *userRepository) FindAll(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(func(domain.User) bool { return true }), nil
}

func (r *userRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := user.Clone()
	if stored.IsNew() {
		r.lastID++
		stored.ID = r.lastID
		r.users = append(r.users, *stored)
		return stored.Clone(), nil
	}

	i := r.indexOf(stored.ID)
	if i < 0 {
		return nil, domain.UserNotFound(stored.ID)
	}
	r.users[i] = *stored
	return stored.Clone(), nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(user.ID)
	if user.IsNew() || i < 0 {
		return nil, domain.UserNotFound(user.ID)
	}
	r.users[i] = *user.Clone()
	return user.Clone(), nil
}

func (r *userRepository) DeleteByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.UserNotFound(id)
	}
	removed := r.users[i]
	r.users = append(r.users[:i], r.users[i+1:]...)
	return &removed, nil
}

func (r *userRepository) FindByBirthdayBetween(_ context.Context, from, to domain.Date) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(func(u domain.User) bool {
		return repository.InRange(u.Birthday, from, to)
	}), nil
}

// indexOf must be called with mu held.
func (r *userRepository) indexOf(id int64) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *userRepository) snapshot(keep func(domain.User) bool) []domain.User {
	out := make([]domain.User, 0, len(r.users))
	for i := range r.users {
		if keep(r.users[i]) {
			out = append(out, *r.users[i].Clone())
		}
	}
	return out
}
