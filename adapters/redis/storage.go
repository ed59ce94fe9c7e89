package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"missionctl/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

const orderKey = "interns:order"

func internKey(id core.InternID) string {
	return fmt.Sprintf("intern:%s", id)
}

// Store implements engine.Storage on Redis.
// Data structure:
// - intern:{id}       -> JSON blob of the intern record
// - interns:order     -> list of ids in store order
//
// The read-modify-write in ApplyDonation is serialized by a process-local
// mutex; the service assumes a single writer process per dataset.
type Store struct {
	client *redis.Client
	mu     sync.Mutex
}

// New creates a Redis-backed store, seeding it when the order key is absent.
func New(cfg Config, seedRecords []core.Intern) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s := &Store{client: client}
	if err := s.seed(ctx, seedRecords); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, seedRecords []core.Intern) (*Store, error) {
	s := &Store{client: client}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.seed(ctx, seedRecords); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// seed writes the dataset only when the store is empty, so restarts against
// a populated instance keep the accumulated state.
func (s *Store) seed(ctx context.Context, records []core.Intern) error {
	n, err := s.client.Exists(ctx, orderKey).Result()
	if err != nil {
		return fmt.Errorf("failed to probe seed state: %w", err)
	}
	if n > 0 || len(records) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		pipe.Set(ctx, internKey(rec.ID), b, 0)
		pipe.RPush(ctx, orderKey, string(rec.ID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, id core.InternID) (core.Intern, error) {
	b, err := s.client.Get(ctx, internKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Intern{}, core.ErrRecordNotFound
	}
	if err != nil {
		return core.Intern{}, fmt.Errorf("failed to fetch intern: %w", err)
	}
	var rec core.Intern
	if err := json.Unmarshal(b, &rec); err != nil {
		return core.Intern{}, fmt.Errorf("corrupt intern record %s: %w", id, err)
	}
	return rec, nil
}

func (s *Store) Find(ctx context.Context, id core.InternID) (core.Intern, error) {
	return s.get(ctx, id)
}

func (s *Store) Snapshot(ctx context.Context) ([]core.Intern, error) {
	ids, err := s.client.LRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list interns: %w", err)
	}
	out := make([]core.Intern, 0, len(ids))
	for _, id := range ids {
		rec, err := s.get(ctx, core.InternID(id))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) ApplyDonation(ctx context.Context, id core.InternID, amount float64) (core.DonationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.get(ctx, id)
	if err != nil {
		return core.DonationResult{}, err
	}
	next, res, err := core.Advance(rec, amount)
	if err != nil {
		return core.DonationResult{}, err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return core.DonationResult{}, err
	}
	if err := s.client.Set(ctx, internKey(id), b, 0).Err(); err != nil {
		return core.DonationResult{}, fmt.Errorf("failed to commit donation: %w", err)
	}
	return res, nil
}
