package monitor

import (
	"context"
	"maps"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"

	boltInfra "github.com/fastygo/users/internal/infrastructure/bolt"
)

type ServiceStatus struct {
	Online bool   `json:"online"`
	Error  string `json:"error,omitempty"`
}

type Status struct {
	Healthy   bool                     `json:"healthy"`
	Services  map[string]ServiceStatus `json:"services"`
	LastCheck time.Time                `json:"last_check"`
}

func (s Status) clone() Status {
	s.Services = maps.Clone(s.Services)
	return s
}

func PostgresCheck(pool *pgxpool.Pool) Check {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

func RedisCheck(client *redislib.Client) Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func BoltCheck(db *bolt.DB) Check {
	return func(context.Context) error {
		return boltInfra.Ping(db)
	}
}
