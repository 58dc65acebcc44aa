package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
	delErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) DeleteIfEquals(_ context.Context, key, expected string) (bool, error) {
	if f.delErr != nil {
		return false, f.delErr
	}
	if value, ok := f.values[key]; ok && value == expected {
		delete(f.values, key)
		return true, nil
	}
	return false, nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedis()
	lock, err := NewRedisLock(store, "ps:lock:sync", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}
	if store.ttls["ps:lock:sync"] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v", store.ttls["ps:lock:sync"])
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatal("expected second acquire to fail while held")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := store.values["ps:lock:sync"]; held {
		t.Fatal("expected key removed on release")
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release to succeed")
	}
}

func TestRedisLockReleaseLeavesForeignOwner(t *testing.T) {
	store := newFakeRedis()
	lock, _ := NewRedisLock(store, "ps:lock:sync", time.Minute)
	ctx := context.Background()

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	store.values["ps:lock:sync"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["ps:lock:sync"] != "someone-else" {
		t.Fatal("release must not delete a lock owned by another holder")
	}
}

func TestRedisLockErrors(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", time.Minute); err == nil {
		t.Fatal("expected client requirement")
	}
	if _, err := NewRedisLock(newFakeRedis(), "", time.Minute); err == nil {
		t.Fatal("expected key requirement")
	}
	store := newFakeRedis()
	store.setErr = errors.New("connection refused")
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if _, err := lock.Acquire(context.Background()); err == nil {
		t.Fatal("expected setnx error")
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release without ownership should be a no-op: %v", err)
	}

	store = newFakeRedis()
	lock, _ = NewRedisLock(store, "k", time.Minute)
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("expected acquire")
	}
	store.delErr = errors.New("connection reset")
	if err := lock.Release(context.Background()); err == nil {
		t.Fatal("expected release error to surface")
	}
}

func TestLocalLock(t *testing.T) {
	lock := NewLocalLock()
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatal("expected held lock to refuse")
	}
	_ = lock.Release(ctx)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
}
