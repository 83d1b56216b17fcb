package redisx

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// New builds a redis client for the given address. Callers treat an
// empty address as "redis disabled" and pass nil downstream.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
}
