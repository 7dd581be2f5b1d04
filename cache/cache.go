package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/reflect"
)

// ErrClosed is returned when operating on a closed store.
var ErrClosed = errors.New(errors.PhaseCache, errors.KindInvalidInput).
	Detail("cache closed").
	Build()

// entryVersion is bumped whenever the stored layout changes. Entries with
// another version are ignored.
const entryVersion = 1

var bucketReflections = []byte("reflections")

// Config holds cache configuration options.
type Config struct {
	// Path is the database file.
	Path string

	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration

	// NoSync disables fsync after each write.
	NoSync bool

	// ReadOnly opens the database without write access. Reflect still
	// computes misses but does not store them.
	ReadOnly bool

	// CompressionLevel is the zstd level used for new entries.
	CompressionLevel zstd.EncoderLevel
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:             path,
		Timeout:          5 * time.Second,
		CompressionLevel: zstd.SpeedDefault,
	}
}

// entry is the stored form of one reflection result.
type entry struct {
	Fingerprint string                  `json:"fingerprint"`
	Sets        []reflect.DescriptorSet `json:"sets"`
	Stored      time.Time               `json:"stored"`
	Version     int                     `json:"version"`
	CodeSize    int                     `json:"code_size"`
}

// Store is a reflection cache backed by bbolt.
type Store struct {
	db     *bolt.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	config Config

	mu     sync.RWMutex
	closed bool
}

// Open creates or opens a cache database.
func Open(config Config) (*Store, error) {
	if !config.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create cache directory")
		}
	}

	db, err := bolt.Open(config.Path, 0600, &bolt.Options{
		Timeout:  config.Timeout,
		NoSync:   config.NoSync,
		ReadOnly: config.ReadOnly,
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "open cache database")
	}

	if !config.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketReflections)
			return err
		})
		if err != nil {
			db.Close()
			return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "create cache bucket")
		}
	}

	if config.CompressionLevel == 0 {
		config.CompressionLevel = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(config.CompressionLevel))
	if err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create zstd encoder")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create zstd decoder")
	}

	Logger().Debug("cache opened",
		zap.String("path", config.Path),
		zap.Bool("read_only", config.ReadOnly))

	return &Store{
		db:     db,
		enc:    enc,
		dec:    dec,
		config: config,
	}, nil
}

// Get returns the cached descriptor sets for code. A missing or unreadable
// entry reports ok false.
func (s *Store) Get(code []byte) ([]reflect.DescriptorSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}

	key := Fingerprint(code)
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReflections)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "read cache entry")
	}
	if raw == nil {
		Logger().Debug("cache miss", zap.String("fingerprint", key))
		return nil, false, nil
	}

	e, err := s.decode(raw)
	if err != nil {
		Logger().Warn("discarding corrupt cache entry",
			zap.String("fingerprint", key),
			zap.Error(err))
		return nil, false, nil
	}
	if e.Version != entryVersion || e.Fingerprint != key || e.CodeSize != len(code) {
		Logger().Debug("ignoring stale cache entry",
			zap.String("fingerprint", key),
			zap.Int("version", e.Version))
		return nil, false, nil
	}

	Logger().Debug("cache hit", zap.String("fingerprint", key), zap.Int("sets", len(e.Sets)))
	if e.Sets == nil {
		e.Sets = []reflect.DescriptorSet{}
	}
	return e.Sets, true, nil
}

// Put stores the descriptor sets reflected from code.
func (s *Store) Put(code []byte, sets []reflect.DescriptorSet) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if s.config.ReadOnly {
		return errors.InvalidInput(errors.PhaseCache, "cache opened read-only")
	}

	key := Fingerprint(code)
	raw, err := s.encode(entry{
		Fingerprint: key,
		Sets:        sets,
		Stored:      time.Now().UTC(),
		Version:     entryVersion,
		CodeSize:    len(code),
	})
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReflections).Put([]byte(key), raw)
	})
	if err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "write cache entry")
	}
	Logger().Debug("cache store",
		zap.String("fingerprint", key),
		zap.Int("bytes", len(raw)))
	return nil
}

// Reflect returns the descriptor sets of code, reflecting and storing them
// on a miss. Reflection errors are returned as is and never cached.
func (s *Store) Reflect(code []byte) ([]reflect.DescriptorSet, error) {
	sets, ok, err := s.Get(code)
	if err != nil {
		return nil, err
	}
	if ok {
		return sets, nil
	}

	sets, err = reflect.Reflect(code)
	if err != nil {
		return nil, err
	}
	if !s.config.ReadOnly {
		if err := s.Put(code, sets); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

// Delete removes the entry for code, if any.
func (s *Store) Delete(code []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if s.config.ReadOnly {
		return errors.InvalidInput(errors.PhaseCache, "cache opened read-only")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReflections).Delete([]byte(Fingerprint(code)))
	})
	if err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "delete cache entry")
	}
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketReflections); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "count cache entries")
	}
	return n, nil
}

// Close releases the database and codecs. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.enc.Close()
	s.dec.Close()
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "close cache database")
	}
	return nil
}

func (s *Store) encode(e entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "encode cache entry")
	}
	return s.enc.EncodeAll(data, nil), nil
}

func (s *Store) decode(raw []byte) (entry, error) {
	var e entry
	data, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return e, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "decompress cache entry")
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "decode cache entry")
	}
	return e, nil
}
