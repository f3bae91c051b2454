// ABOUTME: File-backed VariableSetStore: one <id>.json record per variable set in a single directory.
// ABOUTME: Writes go through temp file + rename, and mutations on an id are serialized by a per-id lock.
package varset

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const recordExt = ".json"

// maxCreateAttempts bounds id regeneration when a generated id is already taken.
const maxCreateAttempts = 8

// Store persists variable sets as individual JSON files under dir.
type Store struct {
	dir   string
	ids   IDGenerator
	locks keyedMutex
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default ULID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("variable set directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating variable set directory: %w", err)
	}
	s := &Store{
		dir: dir,
		ids: NewULIDGenerator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the record directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

// List reads every record in the directory. Records that fail to read or
// parse are logged and left out; they never hide the remaining records.
// A missing directory yields an empty result.
func (s *Store) List() (map[string]Entry, error) {
	result := make(map[string]Entry)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("reading variable set directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
			continue
		}
		path := filepath.Join(s.dir, name)
		id := strings.TrimSuffix(name, recordExt)
		if err := validateID(id); err != nil {
			log.Printf("variable set load: skipping %s: %v", path, err)
			continue
		}

		rec, err := readRecord(path)
		if err != nil {
			log.Printf("variable set load: skipping %s: %v", path, err)
			continue
		}
		result[id] = Entry(rec)
	}

	return result, nil
}

// Get returns the variable set stored under id.
func (s *Store) Get(id string) (VariableSet, error) {
	if err := validateID(id); err != nil {
		return VariableSet{}, err
	}
	rec, err := readRecord(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return VariableSet{}, ErrNotFound
		}
		return VariableSet{}, fmt.Errorf("load variable set %s: %w", id, err)
	}
	return VariableSet{ID: id, Name: rec.Name, Variables: rec.Variables}, nil
}

// Create stores a new variable set under a freshly generated id.
func (s *Store) Create(name string, variables *Object) (VariableSet, error) {
	if variables == nil {
		return VariableSet{}, &ValidationError{Field: "variables"}
	}
	rec := record{Name: name, Variables: variables.Clone()}

	var id string
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id = s.ids.NewID()
		if err := validateID(id); err != nil {
			return VariableSet{}, fmt.Errorf("id generator produced %q: %w", id, err)
		}

		created, err := s.createWithID(id, rec)
		if err != nil {
			return VariableSet{}, err
		}
		if created {
			return VariableSet{ID: id, Name: rec.Name, Variables: rec.Variables}, nil
		}
		log.Printf("variable set create: id %s already taken, regenerating", id)
	}

	return VariableSet{}, &WriteError{ID: id, Err: errors.New("id already taken after retries")}
}

// createWithID writes rec under id unless a record already exists there.
func (s *Store) createWithID(id string, rec record) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := os.Stat(s.path(id)); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, &WriteError{ID: id, Err: err}
	}

	if err := writeJSONAtomic(s.path(id), rec); err != nil {
		return false, &WriteError{ID: id, Err: err}
	}
	return true, nil
}

// Update fully replaces the record at id, creating it when absent.
func (s *Store) Update(id, name string, variables *Object) (VariableSet, error) {
	if err := validateID(id); err != nil {
		return VariableSet{}, err
	}
	if variables == nil {
		return VariableSet{}, &ValidationError{Field: "variables"}
	}
	rec := record{Name: name, Variables: variables.Clone()}

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := writeJSONAtomic(s.path(id), rec); err != nil {
		return VariableSet{}, &WriteError{ID: id, Err: err}
	}
	return VariableSet{ID: id, Name: rec.Name, Variables: rec.Variables}, nil
}

// Delete removes the record at id. A missing record yields ErrNotFound;
// any other failure is returned wrapped.
func (s *Store) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete variable set %s: %w", id, err)
	}
	return nil
}

// readRecord loads and validates one record file.
func readRecord(path string) (record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record{}, err
	}
	return decodeRecord(data)
}

func decodeRecord(data []byte) (record, error) {
	var raw struct {
		Name      *string `json:"name"`
		Variables *Object `json:"variables"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return record{}, fmt.Errorf("parse record: %w", err)
	}
	if raw.Name == nil {
		return record{}, errors.New("parse record: missing name")
	}
	if raw.Variables == nil {
		return record{}, errors.New("parse record: missing variables")
	}
	return record{Name: *raw.Name, Variables: raw.Variables}, nil
}

// writeJSONAtomic writes v as indented JSON to a temp file in the target
// directory, syncs it, and renames it over path.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
