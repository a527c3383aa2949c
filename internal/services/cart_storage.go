package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CartSessionTTL is how long an idle cart session lives, both as the session
// cookie lifetime and as the Redis key expiry.
const CartSessionTTL = 30 * 24 * time.Hour

// ErrCartNotStored is returned by CartStorage.Load when no value exists for the key
var ErrCartNotStored = errors.New("cart not stored")

// CartStorage persists one serialised cart per session key
type CartStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// CartKey returns the storage key for a cart session.
func CartKey(session string) string {
	return "cart:" + session
}

// FileCartStorage keeps each cart as a JSON file inside a directory
type FileCartStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileCartStorage creates the directory if needed.
func NewFileCartStorage(dir string) (*FileCartStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart storage directory: %w", err)
	}
	return &FileCartStorage{dir: dir}, nil
}

func (s *FileCartStorage) path(key string) string {
	// keys come from client supplied session ids
	safe := strings.NewReplacer(":", "_", "/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileCartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCartNotStored
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}
	return data, nil
}

func (s *FileCartStorage) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cart file: %w", err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to replace cart file: %w", err)
	}
	return nil
}

// RedisCartStorage keeps carts as plain string values in Redis. Every save
// refreshes the key expiry; a zero ttl keeps keys forever.
type RedisCartStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStorage connects using a redis:// URL and pings the server.
func NewRedisCartStorage(ctx context.Context, url string, ttl time.Duration) (*RedisCartStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCartStorage{client: client, ttl: ttl}, nil
}

// NewRedisCartStorageWithClient wraps an existing client.
func NewRedisCartStorageWithClient(client *redis.Client, ttl time.Duration) *RedisCartStorage {
	return &RedisCartStorage{client: client, ttl: ttl}
}

func (s *RedisCartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotStored
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart from redis: %w", err)
	}
	return data, nil
}

func (s *RedisCartStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart to redis: %w", err)
	}
	return nil
}

// Close releases the redis connection pool.
func (s *RedisCartStorage) Close() error {
	return s.client.Close()
}

// MemoryCartStorage is a process-local store, used in tests and CART_STORAGE=memory
type MemoryCartStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryCartStorage() *MemoryCartStorage {
	return &MemoryCartStorage{data: make(map[string][]byte)}
}

func (s *MemoryCartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, ErrCartNotStored
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryCartStorage) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.data[key] = stored
	return nil
}
