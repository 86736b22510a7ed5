// Package store implements the record store: typed CRUD over the five
// entity collections (users, listings, rentals, messages, conversations),
// each serialized as one JSON array under one key of a storage backend,
// plus current-session tracking.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"rentease/internal/auth"
	"rentease/internal/metrics"
	"rentease/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sentinel errors for the two auth precondition violations. "Not found" is
// never an error: lookups return nil for absent records.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Collection key suffixes. The full key is "<prefix>_<suffix>".
const (
	keyUsers         = "users"
	keyListings      = "listings"
	keyRentals       = "rentals"
	keyMessages      = "messages"
	keyConversations = "conversations"
	keyCurrentUser   = "current_user"
	keySyncQueue     = "sync_queue"
	keySchemaVersion = "schema_version"
)

// Store owns a key-value backend and serializes every read-modify-write
// through one mutex, so two operations can never interleave. Cross-process
// writers must share one Store.
type Store struct {
	backend storage.Backend
	prefix  string
	hasher  auth.Hasher
	logger  *zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// Open builds a Store and stamps the schema version. A namespace written by
// a newer schema is refused rather than silently rewritten.
func Open(ctx context.Context, backend storage.Backend, prefix string, hasher auth.Hasher, logger *zerolog.Logger) (*Store, error) {
	if prefix == "" {
		prefix = "rentease"
	}
	if hasher == nil {
		hasher = auth.NoopHasher{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &Store{
		backend: backend,
		prefix:  prefix,
		hasher:  hasher,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := s.checkSchemaVersion(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) key(suffix string) string {
	return s.prefix + "_" + suffix
}

func (s *Store) checkSchemaVersion(ctx context.Context) error {
	raw, ok, err := s.backend.Get(ctx, s.key(keySchemaVersion))
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if ok {
		version, err := strconv.Atoi(string(raw))
		if err != nil {
			return fmt.Errorf("failed to parse schema version %q: %w", raw, err)
		}
		if version > SchemaVersion {
			return fmt.Errorf("storage schema version %d is newer than supported %d", version, SchemaVersion)
		}
		if version == SchemaVersion {
			return nil
		}
		// Forward migrations hang off this switch once version 2 exists.
	}

	if err := s.backend.Set(ctx, s.key(keySchemaVersion), []byte(strconv.Itoa(SchemaVersion))); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	s.logger.Debug().Str("prefix", s.prefix).Int("version", SchemaVersion).Msg("schema version stamped")
	return nil
}

// SchemaVersion of the on-disk layout.
const SchemaVersion = 1

// loadCollection decodes the collection under the suffix into out, which
// must be a pointer to a slice. An absent key leaves out empty.
func (s *Store) loadCollection(ctx context.Context, suffix string, out any) error {
	raw, ok, err := s.backend.Get(ctx, s.key(suffix))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", suffix, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", suffix, err)
	}
	return nil
}

// saveCollection overwrites the collection wholesale.
func (s *Store) saveCollection(ctx context.Context, suffix string, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", suffix, err)
	}
	if err := s.backend.Set(ctx, s.key(suffix), raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", suffix, err)
	}
	metrics.IncStoreOp(suffix, "save")
	return nil
}

func (s *Store) newID() string {
	return uuid.NewString()
}

func marshalRecord(in any) ([]byte, error) {
	return json.Marshal(in)
}

func unmarshalRecord(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}

// Export snapshots every collection key for the backup service.
func (s *Store) Export(ctx context.Context) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	suffixes := []string{keyUsers, keyListings, keyRentals, keyMessages, keyConversations, keySyncQueue}
	snapshot := make(map[string]json.RawMessage, len(suffixes))
	for _, suffix := range suffixes {
		raw, ok, err := s.backend.Get(ctx, s.key(suffix))
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", suffix, err)
		}
		if !ok {
			raw = []byte("[]")
		}
		snapshot[suffix] = json.RawMessage(raw)
	}
	return snapshot, nil
}

// Restore writes a snapshot produced by Export back into the backend,
// overwriting every collection present in it. Unknown keys are rejected so
// a mangled snapshot cannot scatter garbage into the namespace.
func (s *Store) Restore(ctx context.Context, snapshot map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := map[string]bool{
		keyUsers: true, keyListings: true, keyRentals: true,
		keyMessages: true, keyConversations: true, keySyncQueue: true,
	}
	for suffix, raw := range snapshot {
		if !known[suffix] {
			return fmt.Errorf("unknown collection %q in snapshot", suffix)
		}
		if !json.Valid(raw) {
			return fmt.Errorf("invalid JSON for collection %q", suffix)
		}
		if err := s.backend.Set(ctx, s.key(suffix), raw); err != nil {
			return fmt.Errorf("failed to restore %s: %w", suffix, err)
		}
	}
	s.logger.Info().Int("collections", len(snapshot)).Msg("snapshot restored")
	return nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
