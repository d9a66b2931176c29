// Package bolt persists users in a BoltDB bucket keyed by big-endian id.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/repository"
)

// Bucket is the bucket name holding user records.
const Bucket = "users"

type userRepository struct {
	db     *bolt.DB
	bucket []byte
}

// NewUserRepository wraps an open database whose Bucket already exists.
// Ids come from the bucket sequence, so they survive restarts and deletions.
func NewUserRepository(db *bolt.DB) repository.UserRepository {
	return &userRepository{db: db, bucket: []byte(Bucket)}
}

func (r *userRepository) Exists(_ context.Context, id int64) (bool, error) {
	var found bool
	err := r.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(r.bucket).Get(key(id)) != nil
		return nil
	})
	return found, err
}

func (r *userRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(r.bucket).Get(key(id))
		if raw == nil {
			return domain.UserNotFound(id)
		}
		decoded, err := decode(raw)
		if err != nil {
			return err
		}
		user = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) FindAll(_ context.Context) ([]domain.User, error) {
	return r.scan(func(domain.User) bool { return true })
}

func (r *userRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	stored := user.Clone()
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if stored.IsNew() {
			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("next user id: %w", err)
			}
			stored.ID = int64(seq)
		} else if b.Get(key(stored.ID)) == nil {
			return domain.UserNotFound(stored.ID)
		}
		return put(b, stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	stored := user.Clone()
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if stored.IsNew() || b.Get(key(stored.ID)) == nil {
			return domain.UserNotFound(stored.ID)
		}
		return put(b, stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *userRepository) DeleteByID(_ context.Context, id int64) (*domain.User, error) {
	var removed *domain.User
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		raw := b.Get(key(id))
		if raw == nil {
			return domain.UserNotFound(id)
		}
		decoded, err := decode(raw)
		if err != nil {
			return err
		}
		removed = decoded
		return b.Delete(key(id))
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *userRepository) FindByBirthdayBetween(_ context.Context, from, to domain.Date) ([]domain.User, error) {
	return r.scan(func(u domain.User) bool {
		return repository.InRange(u.Birthday, from, to)
	})
}

func (r *userRepository) scan(keep func(domain.User) bool) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).ForEach(func(_, raw []byte) error {
			u, err := decode(raw)
			if err != nil {
				return err
			}
			if keep(*u) {
				users = append(users, *u)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func put(b *bolt.Bucket, user *domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %d: %w", user.ID, err)
	}
	return b.Put(key(user.ID), payload)
}

func decode(raw []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func key(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}
