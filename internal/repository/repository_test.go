package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/timeslot"
	"AgentDesk/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMemory(t *testing.T) *cache.MemoryCache {
	t.Helper()
	mc, err := cache.NewMemoryCache(cache.WithMemoryMaxSize(100))
	if err != nil {
		t.Fatalf("memory cache: %v", err)
	}
	return mc
}

func TestCacheSessionStore_RoundTrip(t *testing.T) {
	store := NewCacheSessionStore(newMemory(t), time.Hour)
	ctx := context.Background()

	sess := &models.FormSession{
		ID:           "0b4f3f7e-3c59-4a7a-9d59-8d3b0a3b7e11",
		Name:         "btc daily",
		TargetMarket: "BTCUSDT",
		Form: timeslot.State{
			Scale:     timeslot.ScaleMonthly,
			Frequency: timeslot.FreqDay1,
			Boundaries: map[timeslot.BoundaryKind]timeslot.Boundary{
				timeslot.InputStart: {timeslot.UnitWeek: 1, timeslot.UnitDay: 2},
			},
		},
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "btc daily" || got.Form.Boundaries[timeslot.InputStart][timeslot.UnitDay] != 2 {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheSessionStore_Lock(t *testing.T) {
	store := NewCacheSessionStore(newMemory(t), time.Hour)
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer cancel()
	if _, err := store.Lock(short, "s1"); err == nil {
		t.Fatalf("second lock should not be granted")
	}

	unlock()
	again, err := store.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("lock after unlock: %v", err)
	}
	again()
}

// replica builds one process's view of a shared Redis: its own client behind
// a layered cache, the way the service is deployed.
func replica(t *testing.T, mr *miniredis.Miniredis) *CacheSessionStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	lc, err := cache.NewLayeredCache(cache.NewRedisCacheFromClient(client, "agentdesk"),
		cache.WithLayeredMemoryTTL(time.Hour))
	if err != nil {
		t.Fatalf("layered cache: %v", err)
	}
	return NewCacheSessionStore(lc, time.Hour)
}

func TestCacheSessionStore_ReplicasShareSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	a, b := replica(t, mr), replica(t, mr)
	ctx := context.Background()

	sess := &models.FormSession{
		ID: "6f1c0f52-2d1e-4f0b-a3f5-0d7f0c7b6a10",
		Form: timeslot.State{
			Scale:     timeslot.ScaleMonthly,
			Frequency: timeslot.FreqDay1,
			Boundaries: map[timeslot.BoundaryKind]timeslot.Boundary{
				timeslot.InputStart: {timeslot.UnitWeek: 1},
			},
		},
	}
	if err := a.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, err := b.Get(ctx, sess.ID); err != nil || got.Form.Boundaries[timeslot.InputStart][timeslot.UnitWeek] != 1 {
		t.Fatalf("b should see the session: %+v %v", got, err)
	}

	sess.Form.Boundaries[timeslot.InputStart][timeslot.UnitWeek] = 3
	if err := a.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := b.Get(ctx, sess.ID)
	if err != nil || got.Form.Boundaries[timeslot.InputStart][timeslot.UnitWeek] != 3 {
		t.Fatalf("b read a stale session: %+v %v", got, err)
	}

	if err := a.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.Get(ctx, sess.ID); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("a deleted session must be gone on every replica, got %v", err)
	}

	unlock, err := a.Lock(ctx, sess.ID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()
	if _, err := b.Lock(ctx, sess.ID); !errors.Is(err, domrepo.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy across replicas, got %v", err)
	}
}

func TestCachePredictionArchive(t *testing.T) {
	archive := NewCachePredictionArchive(newMemory(t), time.Hour)
	ctx := context.Background()

	p := models.ArchivedPrediction{
		Prediction: models.Prediction{
			PredictionID: 7,
			AgentID:      3,
			Prediction:   []float64{1, 2, 3},
			ActualMarket: []float64{1.5, 2.5},
		},
		ServedAt: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
	}
	if err := archive.Store(ctx, p); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := archive.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AgentID != 3 || len(got.Prediction.Prediction) != 3 || !got.ServedAt.Equal(p.ServedAt) {
		t.Fatalf("unexpected archived prediction %+v", got)
	}
	if _, err := archive.Get(ctx, 8); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPredictionSchema(t *testing.T) {
	stmts := PredictionSchema("agentdesk")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if !strings.Contains(stmts[1], "agentdesk.predictions") || !strings.Contains(stmts[1], "ReplacingMergeTree") {
		t.Fatalf("unexpected table ddl: %s", stmts[1])
	}
}
