package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xlake-project/xlake/internal/value"
)

// LocalStore is the default concrete Store: a flat directory of
// "{hash}.json" files, each a UTF-8 JSON document shaped like the
// serialised Object (base64 for Binary values), matching the persisted
// store layout in spec 6.
type LocalStore struct {
	dir string
}

// NewLocalStore ensures dir exists and returns a LocalStore rooted there.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create base directory %q: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(hash string) string {
	return filepath.Join(s.dir, hash+".json")
}

func (s *LocalStore) Contains(_ context.Context, hash string) (bool, error) {
	_, err := os.Stat(s.path(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("store: stat %q: %w", hash, err)
}

func (s *LocalStore) Read(_ context.Context, hash string) (*value.Object, error) {
	buf, err := os.ReadFile(s.path(hash))
	if err != nil {
		return nil, fmt.Errorf("store: read %q: %w", hash, err)
	}
	obj := value.NewObject()
	if err := json.Unmarshal(buf, obj); err != nil {
		return nil, fmt.Errorf("store: decode %q: %w", hash, err)
	}
	return obj, nil
}

func (s *LocalStore) Write(_ context.Context, hash string, obj *value.Object) error {
	buf, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", hash, err)
	}
	// Filesystem-default write; atomic rename is not required at this
	// level (spec 4.6) but costs nothing and avoids a reader observing a
	// truncated file under concurrent access.
	tmp := s.path(hash) + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("store: write %q: %w", hash, err)
	}
	if err := os.Rename(tmp, s.path(hash)); err != nil {
		return fmt.Errorf("store: rename into place %q: %w", hash, err)
	}
	return nil
}
