package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewStore(NewRedisBackend(rdb, "cc"), quietLogger()), mr, rdb
}

func TestRedisBackendSessionPair(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newRedisStoreTest(t)

	if err := s.SaveSession(ctx, SessionRecord{User: testUser().Public(), Token: "h.p.s"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if !mr.Exists("cc:"+KeySessionUser) || !mr.Exists("cc:"+KeySessionToken) {
		t.Fatalf("expected both prefixed keys, have %v", mr.Keys())
	}
	if got, _ := mr.Get("cc:" + KeySessionToken); got != "h.p.s" {
		t.Fatalf("unexpected token value %q", got)
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected no keys after clear, have %v", mr.Keys())
	}
}

func TestRedisBackendDirectory(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newRedisStoreTest(t)

	if err := s.SaveDirectory(ctx, Directory{testUser()}); err != nil {
		t.Fatalf("save directory: %v", err)
	}
	dir, err := s.LoadDirectory(ctx)
	if err != nil || len(dir) != 1 {
		t.Fatalf("expected one user, len=%d err=%v", len(dir), err)
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newRedisStoreTest(t)
	mr.Close()

	if _, err := s.LoadDirectory(ctx); !errors.Is(err, ErrStoreRead) {
		t.Fatalf("expected read failure, got %v", err)
	}
	if err := s.SaveSession(ctx, SessionRecord{Token: "x"}); !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected write failure, got %v", err)
	}
}
