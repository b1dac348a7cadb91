// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package llm

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// ParamStore is the external config store consulted before every model
// call. The kill switch and the monthly token counter live here rather
// than in process memory so that every worker sharing the store observes
// the same budget.
type ParamStore interface {

	/*
		Get returns the value at key, or "" when the key is absent.
	*/
	Get(context context.Context, key string) (string, error)

	/*
		Set writes the value at key.
	*/
	Set(context context.Context, key, value string) error

	/*
		IncrBy atomically adds delta to the integer at key.

		Returns:
		  - int64: The counter value after the addition
	*/
	IncrBy(context context.Context, key string, delta int64) (int64, error)
}

// # Redis Implementation

// RedisParamStore backs [ParamStore] with Redis, the production store.
type RedisParamStore struct {
	client *goredis.Client
}

// NewRedisParamStore constructs a Redis backed [ParamStore].
func NewRedisParamStore(client *goredis.Client) *RedisParamStore {
	return &RedisParamStore{client: client}
}

func (store *RedisParamStore) Get(context context.Context, key string) (string, error) {
	value, err := store.client.Get(context, key).Result()
	if err == goredis.Nil {
		return "", nil
	}
	return value, err
}

func (store *RedisParamStore) Set(context context.Context, key, value string) error {
	return store.client.Set(context, key, value, 0).Err()
}

func (store *RedisParamStore) IncrBy(context context.Context, key string, delta int64) (int64, error) {
	return store.client.IncrBy(context, key, delta).Result()
}

// # Noop Implementation

// NoopParamStore is the development store: no kill switch, no budget.
type NoopParamStore struct{}

func (NoopParamStore) Get(context.Context, string) (string, error)        { return "", nil }
func (NoopParamStore) Set(context.Context, string, string) error          { return nil }
func (NoopParamStore) IncrBy(context.Context, string, int64) (int64, error) { return 0, nil }
