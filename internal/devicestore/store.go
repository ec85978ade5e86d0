// Package devicestore keeps small values scoped to one browsing device,
// the server-side stand-in for browser local storage.
package devicestore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Get returns the value for key on device; ok is false when unset.
	Get(ctx context.Context, device, key string) (value string, ok bool, err error)
	Set(ctx context.Context, device, key, value string) error
	// Swap sets key to value only while it still holds old, or is still
	// unset when hadOld is false. It reports whether the write happened.
	Swap(ctx context.Context, device, key, old string, hadOld bool, value string) (bool, error)
}

type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, device, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[device+"\x00"+key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, device, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[device+"\x00"+key] = value
	return nil
}

func (m *Memory) Swap(_ context.Context, device, key, old string, hadOld bool, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := device + "\x00" + key
	cur, ok := m.values[k]
	if ok != hadOld || (ok && cur != old) {
		return false, nil
	}
	m.values[k] = value
	return true, nil
}

const keyPrefix = "device:"

// Redis stores values as device:<id>:<key> with a sliding TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, device, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, keyPrefix+device+":"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("device store get: %w", err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, device, key, value string) error {
	if err := r.rdb.Set(ctx, keyPrefix+device+":"+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("device store set: %w", err)
	}
	return nil
}

// Swap uses WATCH so a concurrent writer makes the transaction fail
// instead of being overwritten.
func (r *Redis) Swap(ctx context.Context, device, key, old string, hadOld bool, value string) (bool, error) {
	k := keyPrefix + device + ":" + key
	swapped := false
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if hadOld {
				return nil
			}
		case err != nil:
			return err
		case !hadOld || cur != old:
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, value, r.ttl)
			return nil
		})
		if err == nil {
			swapped = true
		}
		return err
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("device store swap: %w", err)
	}
	return swapped, nil
}

// MustRedis parses a redis:// URL and returns a client.
func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}
