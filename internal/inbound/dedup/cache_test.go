package dedup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"realestate_ai_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryCacheSeenTwice(t *testing.T) {
	cache := NewMemoryCache(10, time.Hour)
	ctx := context.Background()

	if cache.Seen(ctx, Key("whatsapp", "wamid.1")) {
		t.Fatalf("expected first observation to be unseen")
	}
	if !cache.Seen(ctx, Key("whatsapp", "wamid.1")) {
		t.Fatalf("expected second observation to be seen")
	}
	if cache.Seen(ctx, Key("sms", "wamid.1")) {
		t.Fatalf("expected same id on another channel to be unseen")
	}
}

func TestMemoryCacheExpiredEntryCountsAsUnseen(t *testing.T) {
	cache := NewMemoryCache(10, time.Hour)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Seen(context.Background(), "a")
	now = now.Add(61 * time.Minute)
	if cache.Seen(context.Background(), "a") {
		t.Fatalf("expected entry older than the window to be unseen")
	}
}

func TestMemoryCacheBoundIsStrict(t *testing.T) {
	cache := NewMemoryCache(3, time.Hour)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	for i := 0; i < 5; i++ {
		cache.Seen(context.Background(), fmt.Sprintf("id-%d", i))
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", cache.Len())
	}
	if cache.Seen(context.Background(), "id-4") != true {
		t.Fatalf("expected newest entry to survive eviction")
	}
}

func TestMemoryCacheEvictsExpiredFirst(t *testing.T) {
	cache := NewMemoryCache(2, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Seen(context.Background(), "old")
	now = now.Add(30 * time.Second)
	cache.Seen(context.Background(), "fresh")
	now = now.Add(45 * time.Second)
	cache.Seen(context.Background(), "new")

	if !cache.Seen(context.Background(), "fresh") {
		t.Fatalf("expected fresh entry to be kept when an expired one could be evicted")
	}
}

func TestMemoryCacheConcurrentCallersOneWinner(t *testing.T) {
	cache := NewMemoryCache(100, time.Hour)
	var unseen int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !cache.Seen(context.Background(), "whatsapp:wamid.race") {
				atomic.AddInt32(&unseen, 1)
			}
		}()
	}
	wg.Wait()

	if unseen != 1 {
		t.Fatalf("expected exactly one caller to observe unseen, got %d", unseen)
	}
}

func TestRedisCacheSharesAcrossInstances(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	log := logger.New("development")
	first := NewRedisCache(client, time.Hour, nil, log)
	second := NewRedisCache(client, time.Hour, nil, log)

	if first.Seen(context.Background(), "sms:SM123") {
		t.Fatalf("expected first observation to be unseen")
	}
	if !second.Seen(context.Background(), "sms:SM123") {
		t.Fatalf("expected second process to see the id")
	}

	srv.FastForward(2 * time.Hour)
	if first.Seen(context.Background(), "sms:SM999") {
		t.Fatalf("expected new id to be unseen")
	}
}

func TestRedisCacheFallsBackWhenUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	defer client.Close()
	srv.Close()

	cache := NewRedisCache(client, time.Hour, NewMemoryCache(10, time.Hour), logger.New("development"))
	if cache.Seen(context.Background(), "whatsapp:wamid.down") {
		t.Fatalf("expected first observation to be unseen")
	}
	if !cache.Seen(context.Background(), "whatsapp:wamid.down") {
		t.Fatalf("expected local fallback to remember the id")
	}
}
