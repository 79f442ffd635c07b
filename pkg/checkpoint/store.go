package checkpoint

import (
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Store is a key/value store for encoded checkpoints.
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Get returns the stored data and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists all stored keys.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// FileStore implements a file-based store for CLI usage.
// Entries are stored as files in a directory with metadata (expiration).
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// entry wraps stored data with metadata.
type entry struct {
	Key       string    `cbor:"key"`
	Data      []byte    `cbor:"data"`
	ExpiresAt time.Time `cbor:"expires_at,omitempty"`
}

// Name returns "file".
func (s *FileStore) Name() string { return "file" }

// Dir returns the store's directory.
func (s *FileStore) Dir() string { return s.dir }

// Get retrieves a value from the store.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)
	e, ok, err := readEntry(path)
	if err != nil || !ok {
		return nil, false, err
	}
	return e.Data, true, nil
}

// readEntry reads the entry at path. Corrupt and expired entries are
// removed and reported as missing.
func readEntry(path string) (entry, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return entry{}, false, nil
	}
	if err != nil {
		return entry{}, false, err
	}

	var e entry
	if err := cbor.Unmarshal(data, &e); err != nil {
		_ = os.Remove(path)
		return entry{}, false, nil
	}
	if !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt) {
		_ = os.Remove(path)
		return entry{}, false, nil
	}
	return e, true, nil
}

// Set stores a value. The file is written to a temporary name and renamed,
// so readers never see a partial checkpoint.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := entry{Key: key, Data: data}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	encoded, err := cbor.Marshal(e)
	if err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes a value from the store.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Keys walks the directory and returns the keys of all live entries.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".cbor") {
			return nil
		}
		e, ok, err := readEntry(path)
		if err != nil {
			return err
		}
		if ok {
			keys = append(keys, e.Key)
		}
		return nil
	})
	return keys, err
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// path converts a key to a file path.
// Uses a hash-based directory structure to avoid too many files in one dir.
func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".cbor")
}

// Hash computes a BLAKE3 hash of the input data as a 64-character hex string.
func Hash(data []byte) string {
	h := blake3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NullStore is a no-op store that never keeps anything.
// Useful for testing or when checkpoints are disabled.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() *NullStore { return &NullStore{} }

// Name returns "null".
func (NullStore) Name() string { return "null" }

// Get always reports a miss.
func (NullStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set does nothing.
func (NullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (NullStore) Delete(context.Context, string) error { return nil }

// Keys returns no keys.
func (NullStore) Keys(context.Context) ([]string, error) { return nil, nil }

// Close does nothing.
func (NullStore) Close() error { return nil }

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*NullStore)(nil)
)
