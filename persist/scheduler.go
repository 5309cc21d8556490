// Package persist writes encoded databases to storage on a schedule.
package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nasdf/nosqldb/codec"
	"github.com/nasdf/nosqldb/core"
	"github.com/nasdf/nosqldb/storage"
)

const (
	DefaultKey      = "nosqldb"
	DefaultInterval = time.Minute
)

// ErrInterval is returned by Run when the interval between runs is not positive.
var ErrInterval = errors.New("persist interval must be positive")

// Source is a database with an XML document form, such as a core.Store.
type Source = codec.Documenter

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithKey sets the prefix of the storage keys written by the scheduler.
func WithKey(key string) Option {
	return func(s *Scheduler) {
		s.key = key
	}
}

// WithInterval sets the time between two runs.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = interval
	}
}

// WithMaxRuns stops Run after the given number of runs. Zero means no limit.
func WithMaxRuns(n int) Option {
	return func(s *Scheduler) {
		s.maxRuns = n
	}
}

// WithSkipUnchanged makes runs whose encoded content matches the previous
// write a no-op. Skipped runs do not count toward the maximum number of runs.
func WithSkipUnchanged() Option {
	return func(s *Scheduler) {
		s.skipUnchanged = true
	}
}

// WithLogger sets the logger used to report runs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler periodically encodes a source and writes the result to storage.
//
// Every run writes a new key made of the key prefix and a sequence number.
// Numbering resumes after the keys already present in storage, so backends
// never have to replace existing content.
type Scheduler struct {
	source   Source
	store    storage.Storage
	key      string
	interval time.Duration
	maxRuns  int
	logger   *slog.Logger

	skipUnchanged bool

	lock       sync.Mutex
	runs       int
	next       int
	lastKey    string
	lastDigest Digest
}

// NewScheduler returns a scheduler writing the given source to the given storage.
func NewScheduler(source Source, store storage.Storage, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		store:    store,
		key:      DefaultKey,
		interval: DefaultInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist encodes the source once and writes it under the next free key.
// It returns the key holding the latest content.
func (s *Scheduler) Persist(ctx context.Context) (string, error) {
	data, digest, err := encode(s.source)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.skipUnchanged && !s.lastDigest.IsZero() && digest == s.lastDigest {
		s.logger.Debug("database unchanged, skipping write", "key", s.lastKey, "digest", digest)
		return s.lastKey, nil
	}
	next, err := storage.NextFree(ctx, s.store, s.runKey, max(s.next, 1))
	if err != nil {
		return "", fmt.Errorf("find free key: %w", err)
	}
	key := s.runKey(next)
	if err := s.store.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	s.runs++
	s.next = next + 1
	s.lastKey = key
	s.lastDigest = digest
	s.logger.Debug("persisted database", "key", key, "bytes", len(data), "digest", digest)
	return key, nil
}

// Run persists the source every interval until the context is cancelled,
// the maximum number of runs is reached, or a run fails.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInterval, s.interval)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if s.maxRuns > 0 && s.Runs() >= s.maxRuns {
			s.logger.Info("scheduler finished", "runs", s.Runs())
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Persist(ctx); err != nil {
				s.logger.Error("failed to persist database", "error", err)
				return err
			}
		}
	}
}

// Runs returns the number of writes made by this scheduler.
func (s *Scheduler) Runs() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.runs
}

// LastKey returns the key written by the latest run, or an empty string.
func (s *Scheduler) LastKey() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.lastKey
}

// LastDigest returns the digest of the content written by the latest run.
func (s *Scheduler) LastDigest() Digest {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.lastDigest
}

// RunKey returns the storage key with the given sequence number.
func RunKey(prefix string, run int) string {
	return fmt.Sprintf("%s.%d", prefix, run)
}

func (s *Scheduler) runKey(n int) string {
	return RunKey(s.key, n)
}

// Load decodes the database stored under key into the target store.
func Load[K comparable, P core.Payload[P]](ctx context.Context, store storage.Storage, key string, dec *codec.Decoder[K, P], target *core.Store[K, *core.Record[K, P]]) (codec.Report[K], error) {
	data, err := storage.Read(ctx, store, key)
	if err != nil {
		return codec.Report[K]{}, fmt.Errorf("get %s: %w", key, err)
	}
	return dec.DecodeReader(bytes.NewReader(data), target)
}
