package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, prefix string) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, prefix), mr
}

type cachedQuestion struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestCache(t, "question:")
	ctx := context.Background()

	stored := cachedQuestion{ID: 42, Text: "Which option is correct?"}
	if err := helper.Set(ctx, "42", stored, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got cachedQuestion
	if err := helper.Get(ctx, "42", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != stored.ID || got.Text != stored.Text {
		t.Errorf("got %+v, want %+v", got, stored)
	}
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestCache(t, "question:")

	var got cachedQuestion
	err := helper.Get(context.Background(), "missing", &got)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_KeyPrefix(t *testing.T) {
	helper, mr := newTestCache(t, "attempt:")
	ctx := context.Background()

	if err := helper.SetString(ctx, "student-1:7", "started", time.Minute); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	if !mr.Exists("attempt:student-1:7") {
		t.Error("expected prefixed key attempt:student-1:7 in redis")
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, mr := newTestCache(t, "answer:")
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := helper.SetString(ctx, key, "v", time.Minute); err != nil {
			t.Fatalf("SetString failed: %v", err)
		}
	}

	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if mr.Exists("answer:a") || mr.Exists("answer:b") {
		t.Error("deleted keys still present")
	}
	if !mr.Exists("answer:c") {
		t.Error("untouched key was removed")
	}
}

func TestCacheHelper_Exists(t *testing.T) {
	helper, _ := newTestCache(t, "exists:")
	ctx := context.Background()

	ok, err := helper.Exists(ctx, "question:1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("expected key to be absent")
	}

	if err := helper.SetString(ctx, "question:1", "1", time.Minute); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	ok, err = helper.Exists(ctx, "question:1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("expected key to be present")
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, mr := newTestCache(t, "stats:")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("question:%d", i)
		if err := helper.SetString(ctx, key, "cached", time.Minute); err != nil {
			t.Fatalf("SetString failed: %v", err)
		}
	}
	if err := helper.SetString(ctx, "roster", "cached", time.Minute); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "question:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if mr.Exists(fmt.Sprintf("stats:question:%d", i)) {
			t.Errorf("stats:question:%d survived invalidation", i)
		}
	}
	if !mr.Exists("stats:roster") {
		t.Error("non-matching key was invalidated")
	}
}

func TestCacheHelper_Expiration(t *testing.T) {
	helper, mr := newTestCache(t, "fast:")
	ctx := context.Background()

	if err := helper.SetString(ctx, "k", "v", 30*time.Second); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	mr.FastForward(time.Minute)

	_, err := helper.GetString(ctx, "k")
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound after TTL, got %v", err)
	}
}

func TestCacheHelper_NilClient(t *testing.T) {
	helper := NewCacheHelper(nil, "question:")
	ctx := context.Background()

	// Writes degrade to no-ops, reads report unavailability
	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete with nil client should be a no-op, got %v", err)
	}

	var got string
	if err := helper.Get(ctx, "k", &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestCache(t, "question:")
	ctx := context.Background()

	fetchCalls := 0
	fetch := func() (interface{}, error) {
		fetchCalls++
		return cachedQuestion{ID: 7, Text: "fetched"}, nil
	}

	var got cachedQuestion
	if err := helper.CacheOrExecute(ctx, "7", &got, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetchCalls)
	}
	if got.ID != 7 || got.Text != "fetched" {
		t.Errorf("unexpected result: %+v", got)
	}

	// Seed the cache directly; the stored value must win over fetch
	if err := helper.Set(ctx, "8", cachedQuestion{ID: 8, Text: "cached"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	var fromCache cachedQuestion
	if err := helper.CacheOrExecute(ctx, "8", &fromCache, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if fetchCalls != 1 {
		t.Errorf("fetch ran on a cache hit, calls = %d", fetchCalls)
	}
	if fromCache.Text != "cached" {
		t.Errorf("got %q, want cached value", fromCache.Text)
	}
}

func TestCacheHelper_CacheOrExecute_FetchError(t *testing.T) {
	helper, _ := newTestCache(t, "question:")

	fetchErr := errors.New("db down")
	var got cachedQuestion
	err := helper.CacheOrExecute(context.Background(), "9", &got, time.Minute, func() (interface{}, error) {
		return nil, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
}

func TestCacheManager(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}

	if err := cm.Question.SetString(ctx, "1", "q", time.Minute); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}
	if err := cm.Attempt.SetString(ctx, "1", "a", time.Minute); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	// Helpers must not collide despite sharing the raw key
	if !mr.Exists("question:1") || !mr.Exists("attempt:1") {
		t.Error("expected distinct prefixed keys per helper")
	}

	if err := cm.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if mr.Exists("question:1") {
		t.Error("ClearAll left data behind")
	}
}

func TestCacheManager_NilClient(t *testing.T) {
	cm := NewCacheManager(nil)

	if err := cm.HealthCheck(context.Background()); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
	if err := cm.ClearAll(context.Background()); err != nil {
		t.Errorf("ClearAll with nil client should be a no-op, got %v", err)
	}
}
