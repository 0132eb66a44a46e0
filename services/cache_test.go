package services_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, prefix string) (*services.Cache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return services.NewCache(client, prefix, time.Minute), client
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, "conversion")

	type payload struct {
		Factor string `json:"factor"`
		Found  bool   `json:"found"`
	}

	cache.Set(ctx, "factor:1:kg:g", payload{Factor: "1000", Found: true})

	var got payload
	if !cache.Get(ctx, "factor:1:kg:g", &got) {
		t.Fatal("expected cache hit")
	}
	if got.Factor != "1000" || !got.Found {
		t.Errorf("got %+v", got)
	}

	if cache.Get(ctx, "factor:2:kg:g", &got) {
		t.Error("expected cache miss for unknown key")
	}
}

func TestCacheInvalidateClearsOnlyOwnNamespace(t *testing.T) {
	ctx := context.Background()
	cache, client := newTestCache(t, "conversion")
	other := services.NewCache(client, "consolidation", time.Minute)

	cache.Set(ctx, "a", 1)
	cache.Set(ctx, "b", 2)
	other.Set(ctx, "a", 3)

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	var v int
	if cache.Get(ctx, "a", &v) || cache.Get(ctx, "b", &v) {
		t.Error("expected conversion namespace to be empty")
	}
	if !other.Get(ctx, "a", &v) || v != 3 {
		t.Error("expected consolidation namespace to survive")
	}
}

func TestCacheNilClientIsSafe(t *testing.T) {
	ctx := context.Background()
	cache := services.NewCache(nil, "conversion", time.Minute)

	cache.Set(ctx, "a", 1)
	var v int
	if cache.Get(ctx, "a", &v) {
		t.Error("nil-client cache must always miss")
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Errorf("Invalidate: %v", err)
	}

	var nilCache *services.Cache
	if nilCache.Get(ctx, "a", &v) {
		t.Error("nil cache must always miss")
	}
	nilCache.Set(ctx, "a", 1)
	if err := nilCache.Invalidate(ctx); err != nil {
		t.Errorf("nil cache Invalidate: %v", err)
	}
}
