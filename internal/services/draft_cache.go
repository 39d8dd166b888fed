package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss indicates no cached draft exists for the key
var ErrCacheMiss = errors.New("cache miss")

// KVStore is the abstract key-value store backing the persistent draft cache.
// Abstracted so unit tests can swap Redis out.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisKVStore is the go-redis backed KV implementation
type RedisKVStore struct {
	client *redis.Client
}

// NewRedisKVStore creates a RedisKVStore
func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKVStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// MemoryKVStore is an in-process KV store used when no Redis address is
// configured and in tests. Drafts survive connection loss but not restarts.
type MemoryKVStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKVStore creates a MemoryKVStore
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{values: make(map[string]string)}
}

func (m *MemoryKVStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (m *MemoryKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKVStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// cachedDraft is the serialized form of an unsynced draft
type cachedDraft struct {
	InspectionID string        `json:"inspectionId"`
	SpaceID      string        `json:"spaceId"`
	Answers      []DraftAnswer `json:"answers"`
	SavedAt      time.Time     `json:"savedAt"`
}

// DraftCache persists unsynced drafts keyed by space so a draft survives app
// restarts and connection loss. Restore is preferred over a fresh Init when a
// cached draft exists for the space.
type DraftCache struct {
	kv  KVStore
	ttl time.Duration
}

// NewDraftCache creates a DraftCache. TTL bounds how long an abandoned draft
// lingers; zero means no expiry.
func NewDraftCache(kv KVStore, ttl time.Duration) *DraftCache {
	return &DraftCache{kv: kv, ttl: ttl}
}

func draftKey(spaceID string) string {
	return "draft:" + spaceID
}

// Save writes the draft's current snapshot
func (c *DraftCache) Save(ctx context.Context, store *DraftStore) error {
	cached := cachedDraft{
		InspectionID: store.InspectionID(),
		SpaceID:      store.SpaceID(),
		Answers:      store.Snapshot(),
		SavedAt:      time.Now().UTC(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to serialize draft: %w", err)
	}

	return c.kv.Set(ctx, draftKey(cached.SpaceID), string(data), c.ttl)
}

// Restore loads a previously unsynced draft for the space into the store.
// Returns false when no cached draft was found.
func (c *DraftCache) Restore(ctx context.Context, spaceID string, store *DraftStore) (bool, error) {
	data, err := c.kv.Get(ctx, draftKey(spaceID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}

	var cached cachedDraft
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return false, fmt.Errorf("failed to deserialize draft: %w", err)
	}

	itemIDs := make([]string, len(cached.Answers))
	for i, a := range cached.Answers {
		itemIDs[i] = a.ChecklistItemID
	}

	if err := store.Init(cached.InspectionID, cached.SpaceID, itemIDs); err != nil {
		return false, err
	}

	for _, a := range cached.Answers {
		if a.Result != "" {
			if err := store.SetResult(a.ChecklistItemID, a.Result); err != nil {
				return false, err
			}
		}
		if a.Comment != "" {
			if err := store.SetComment(a.ChecklistItemID, a.Comment); err != nil {
				return false, err
			}
		}
		for _, ref := range a.PhotoRefs {
			if err := store.AddPhoto(a.ChecklistItemID, ref); err != nil {
				return false, err
			}
		}
	}

	// The restored answers are unsynced by definition
	return true, nil
}

// Drop removes the cached draft for a space, called after confirmed completion
func (c *DraftCache) Drop(ctx context.Context, spaceID string) error {
	return c.kv.Delete(ctx, draftKey(spaceID))
}
