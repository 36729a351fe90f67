package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sensefold/sensefold/internal/model"
)

// FileStore keeps the registry as one JSON document on disk. Writes go
// through a temp file and rename so a record is never half-written.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file store at the given path. The file is
// created on first upsert.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the whole collection. A missing file is an empty registry.
func (s *FileStore) Load() (map[string]*model.SemanticConstant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Upsert inserts or replaces one constant and persists the collection.
func (s *FileStore) Upsert(c *model.SemanticConstant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	constants, err := s.read()
	if err != nil {
		return err
	}
	constants[c.ConstantID] = c
	return s.write(constants)
}

// Close is a no-op: every upsert already flushes to disk.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (map[string]*model.SemanticConstant, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*model.SemanticConstant), nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var constants map[string]*model.SemanticConstant
	if err := json.Unmarshal(data, &constants); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if constants == nil {
		constants = make(map[string]*model.SemanticConstant)
	}
	return constants, nil
}

func (s *FileStore) write(constants map[string]*model.SemanticConstant) error {
	data, err := json.MarshalIndent(constants, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close registry: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
