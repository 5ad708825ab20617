package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/stylebazaar/stylebazaar-backend/pkg/redis"
)

func newLockStore(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
}

func TestRedisLockIsExclusive(t *testing.T) {
	_, store := newLockStore(t)
	ctx := context.Background()
	first, err := NewRedisLock(store, "lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "lock:cron", time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, err := second.Acquire(ctx); err != nil || ok {
		t.Fatalf("second acquire should fail: ok=%v err=%v", ok, err)
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("non-owner release must not free the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, err := second.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockLeavesTakenOverLease(t *testing.T) {
	mr, store := newLockStore(t)
	ctx := context.Background()
	first, _ := NewRedisLock(store, "lock:cron", time.Minute)
	second, _ := NewRedisLock(store, "lock:cron", time.Minute)

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("first acquire failed")
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("second acquire after expiry failed")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !mr.Exists("lock:cron") {
		t.Fatal("stale owner deleted the new lease")
	}
}
