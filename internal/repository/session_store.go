package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/pkg/cache"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 20
	lockWait     = 25 * time.Millisecond
)

// CacheSessionStore implements SessionStore on top of cache.Service. Every
// read pushes the expiry forward, so only abandoned forms expire. Sessions
// always go to the shared level of a layered cache: a replica's L1 would
// serve edits made elsewhere stale, or a session already submitted.
type CacheSessionStore struct {
	c   cache.Service
	ttl time.Duration
}

func NewCacheSessionStore(c cache.Service, ttl time.Duration) *CacheSessionStore {
	return &CacheSessionStore{c: cache.Shared(c), ttl: ttl}
}

func (s *CacheSessionStore) Create(ctx context.Context, sess *models.FormSession) error {
	return s.Save(ctx, sess)
}

func (s *CacheSessionStore) Get(ctx context.Context, id string) (*models.FormSession, error) {
	var sess models.FormSession
	if err := s.c.Get(ctx, sessionKey(id), &sess); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	_, _ = s.c.Expire(ctx, sessionKey(id), s.ttl)
	return &sess, nil
}

func (s *CacheSessionStore) Save(ctx context.Context, sess *models.FormSession) error {
	if err := s.c.Set(ctx, sessionKey(sess.ID), sess, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *CacheSessionStore) Delete(ctx context.Context, id string) error {
	return s.c.Delete(ctx, sessionKey(id))
}

// Lock waits briefly for the session's edit lock and gives up with
// ErrSessionBusy. An edit that outlives lockTTL cannot release a lock taken
// after it expired.
func (s *CacheSessionStore) Lock(ctx context.Context, id string) (func(), error) {
	release, err := cache.AcquireLock(ctx, s.c, cache.LockKey(sessionKey(id)), lockTTL, lockAttempts, lockWait)
	switch {
	case errors.Is(err, cache.ErrLocked):
		return nil, domrepo.ErrSessionBusy
	case err != nil:
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return release, nil
}

func sessionKey(id string) string {
	return cache.GenerateKey("session", id)
}

var _ domrepo.SessionStore = (*CacheSessionStore)(nil)
