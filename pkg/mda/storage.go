package mda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/nats-io/nats.go/jetstream"

	eventlog "github.com/snamp-platform/snamp-go/pkg/log"
	"github.com/snamp-platform/snamp-go/pkg/model"
)

// Storage keeps MDA attribute values. Get on a missing key fails with
// model.ErrAttributeNotFound.
type Storage interface {
	Get(ctx context.Context, key string) (any, error)
	Put(ctx context.Context, key string, value any) error

	// PutIfAbsent stores value unless key exists. It returns the value
	// now stored and whether it was written.
	PutIfAbsent(ctx context.Context, key string, value any) (any, bool, error)

	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// StorageKey returns the key of an attribute of resource. Both names are
// escaped so that distinct pairs never share a key and every key is valid
// in a JetStream bucket: ASCII letters, digits, '-' and '_' are kept, any
// other byte becomes '=' followed by two hex digits. The parts are joined
// with '.', which never appears in an escaped part.
func StorageKey(resource, attribute string) string {
	var b strings.Builder
	b.Grow(len(resource) + len(attribute) + 1)
	escapeKeyPart(&b, resource)
	b.WriteByte('.')
	escapeKeyPart(&b, attribute)
	return b.String()
}

func escapeKeyPart(b *strings.Builder, s string) {
	const hex = "0123456789ABCDEF"
	if s == "" {
		b.WriteString("=")
		return
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('=')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
}

// Values are stored with the event log's CBOR options plus tagged
// timestamps, so time values decode as time.Time rather than strings.
var valueEncMode, valueDecMode = eventlog.MustModes(valueEncOptions(), valueDecOptions())

func valueEncOptions() cbor.EncOptions {
	opts := eventlog.EncOptions()
	opts.TimeTag = cbor.EncTagRequired
	return opts
}

func valueDecOptions() cbor.DecOptions {
	opts := eventlog.DecOptions()
	opts.TimeTag = cbor.DecTagOptional
	return opts
}

// MemoryStorage is a Storage backed by a map.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]any)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrAttributeNotFound, key)
	}
	return v, nil
}

func (s *MemoryStorage) Put(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) PutIfAbsent(_ context.Context, key string, value any) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[key]; ok {
		return v, false, nil
	}
	s.values[key] = value
	return value, true, nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// KeyValue is the part of jetstream.KeyValue used by KVStorage.
type KeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	ListKeys(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyLister, error)
}

// KVStorage keeps values CBOR-encoded in a JetStream key-value bucket, so
// several processes can accept data for the same resources.
type KVStorage struct {
	kv      KeyValue
	timeout time.Duration
}

// DefaultKVTimeout bounds each bucket operation.
const DefaultKVTimeout = 5 * time.Second

// NewKVStorage creates a KVStorage over kv. A non-positive timeout
// selects DefaultKVTimeout.
func NewKVStorage(kv KeyValue, timeout time.Duration) *KVStorage {
	if timeout <= 0 {
		timeout = DefaultKVTimeout
	}
	return &KVStorage{kv: kv, timeout: timeout}
}

func (s *KVStorage) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *KVStorage) Get(ctx context.Context, key string) (any, error) {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrAttributeNotFound, key)
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return decodeValue(key, entry.Value())
}

func (s *KVStorage) Put(ctx context.Context, key string, value any) error {
	data, err := valueEncMode.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", model.ErrInvalidAttributeValue, key, err)
	}

	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	if _, err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

// PutIfAbsent creates key with revision check 0. A key that exists only as
// a delete marker is overwritten.
func (s *KVStorage) PutIfAbsent(ctx context.Context, key string, value any) (any, bool, error) {
	data, err := valueEncMode.Marshal(value)
	if err != nil {
		return nil, false, fmt.Errorf("%w: encode %s: %v", model.ErrInvalidAttributeValue, key, err)
	}

	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	_, err = s.kv.Update(ctx, key, data, 0)
	if err == nil {
		return value, true, nil
	}
	if !errors.Is(err, jetstream.ErrKeyExists) {
		return nil, false, fmt.Errorf("kv create %s: %w", key, err)
	}

	entry, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		if _, err := s.kv.Put(ctx, key, data); err != nil {
			return nil, false, fmt.Errorf("kv put %s: %w", key, err)
		}
		return value, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	existing, err := decodeValue(key, entry.Value())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *KVStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

func (s *KVStorage) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	keys := []string{}
	for k := range lister.Keys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func decodeValue(key string, data []byte) (any, error) {
	var v any
	if err := valueDecMode.Unmarshal(data, &v); err != nil {
		return nil, &model.InternalError{Op: "decode", Feature: key, Err: err}
	}
	return v, nil
}

// Compile-time interface satisfaction checks.
var (
	_ Storage  = (*MemoryStorage)(nil)
	_ Storage  = (*KVStorage)(nil)
	_ KeyValue = (jetstream.KeyValue)(nil)
)
