package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T, ttl time.Duration) (*PayloadCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := New(srv.Addr(), "", 0, ttl, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	key := PayloadKey("weather", "London")

	if err := c.Set(ctx, key, []byte(`{"name":"London"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"name":"London"}` {
		t.Errorf("unexpected payload %s", got)
	}
}

func TestGetMissReturnsNil(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	got, err := c.Get(context.Background(), PayloadKey("forecast", "Nowhere"))
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil payload, got %s", got)
	}
}

func TestEntriesExpire(t *testing.T) {
	c, srv := newTestCache(t, 30*time.Second)
	ctx := context.Background()
	key := PayloadKey("weather", "Paris")

	if err := c.Set(ctx, key, []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := srv.TTL(key); ttl != 30*time.Second {
		t.Errorf("expected ttl 30s, got %v", ttl)
	}

	srv.FastForward(31 * time.Second)

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired entry, got %s", got)
	}
}

func TestNewFailsWithoutServer(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := New(addr, "", 0, time.Minute, logger); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestPayloadKeyNormalisesCity(t *testing.T) {
	if got := PayloadKey("weather", "  New York "); got != "weather:weather:new york" {
		t.Errorf("unexpected key %q", got)
	}
}
