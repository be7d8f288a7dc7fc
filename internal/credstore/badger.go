package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"

	"github.com/emplo-ai/emplo/internal/core/domain"
	"github.com/emplo-ai/emplo/internal/telemetry/logger"
)

// BadgerConfig configures the Badger-backed store.
type BadgerConfig struct {
	// Dir is the storage directory. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory (tests, --ephemeral runs).
	InMemory bool

	// SyncWrites fsyncs after each write. Default: true, since a token
	// write is followed by process exit more often than not.
	SyncWrites bool
}

// DefaultBadgerConfig returns the default configuration for dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:        dir,
		SyncWrites: true,
	}
}

// Badger implements Store on top of Badger v3.
type Badger struct {
	db     *badger.DB
	logger logger.Logger
	closed atomic.Bool
}

var _ Store = (*Badger)(nil)

// OpenBadger opens (or creates) the credential database.
func OpenBadger(cfg BadgerConfig, log logger.Logger) (*Badger, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("credstore: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: log.With("component", "badger")}
	opts.SyncWrites = cfg.SyncWrites
	// Two tiny keys: keep the on-disk footprint small.
	opts.BlockCacheSize = 1 << 20
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("credstore: open db: %w", err)
	}

	log.Debug("credential store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)

	return &Badger{db: db, logger: log}, nil
}

// Token returns the stored token.
func (s *Badger) Token(ctx context.Context) (string, error) {
	v, err := s.get(keyToken)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetToken replaces the stored token.
func (s *Badger) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("credstore: empty token")
	}
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyToken, []byte(token))
	})
}

// ClearToken removes the token and the cached identity in one transaction.
func (s *Badger) ClearToken(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keyToken); err != nil {
			return err
		}
		return txn.Delete(keyIdentity)
	})
}

// CachedIdentity returns the identity snapshot.
func (s *Badger) CachedIdentity(ctx context.Context) (domain.Identity, error) {
	v, err := s.get(keyIdentity)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Identity{}, ErrNoIdentity
	}
	if err != nil {
		return domain.Identity{}, err
	}

	var id domain.Identity
	if err := json.Unmarshal(v, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("credstore: decode identity: %w", err)
	}
	return id, nil
}

// SetCachedIdentity replaces the identity snapshot.
func (s *Badger) SetCachedIdentity(ctx context.Context, id domain.Identity) error {
	if s.closed.Load() {
		return ErrClosed
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("credstore: encode identity: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyIdentity, data)
	})
}

// Close closes the database. Further calls return ErrClosed.
func (s *Badger) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("credstore: close db: %w", err)
	}
	s.logger.Debug("credential store closed")
	return nil
}

func (s *Badger) get(key []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
// Badger is chatty at info level, so info lines are demoted to debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
