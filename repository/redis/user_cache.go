package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/repository"
)

type cachedUserRepository struct {
	repository.UserRepository

	client *redislib.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository puts a read-through Redis cache for FindByID in front
// of next. Writes go to next first and then evict the cached entry. Cache
// failures are logged and never fail the call.
func NewCachedUserRepository(next repository.UserRepository, client *redislib.Client, ttl time.Duration, logger *zap.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedUserRepository{
		UserRepository: next,
		client:         client,
		prefix:         "user:",
		ttl:            ttl,
		logger:         logger,
	}
}

func (r *cachedUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	switch {
	case err == nil:
		var user domain.User
		if jsonErr := json.Unmarshal(raw, &user); jsonErr == nil {
			return &user, nil
		}
		r.logger.Warn("dropping undecodable cache entry", zap.Int64("user_id", id))
		r.evict(ctx, id)
	case !errors.Is(err, redislib.Nil):
		r.logger.Warn("user cache read failed", zap.Int64("user_id", id), zap.Error(err))
	}

	user, err := r.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *cachedUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved, err := r.UserRepository.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, saved.ID)
	return saved, nil
}

func (r *cachedUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	updated, err := r.UserRepository.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, updated.ID)
	return updated, nil
}

func (r *cachedUserRepository) DeleteByID(ctx context.Context, id int64) (*domain.User, error) {
	removed, err := r.UserRepository.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return removed, nil
}

func (r *cachedUserRepository) store(ctx context.Context, user *domain.User) {
	payload, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key(user.ID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("user cache write failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func (r *cachedUserRepository) evict(ctx context.Context, id int64) {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		r.logger.Warn("user cache eviction failed", zap.Int64("user_id", id), zap.Error(err))
	}
}

func (r *cachedUserRepository) key(id int64) string {
	return fmt.Sprintf("%s%d", r.prefix, id)
}
