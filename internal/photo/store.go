package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the photo metadata collection: an ordered in-memory slice of
// records persisted as a single JSON array document. It is loaded once at
// startup and rewritten in full after every mutation.
//
// All access goes through the mutex, making concurrent mutations a
// deliberate last-write-wins contract: two racing updates serialize, the
// later one overwrites, and the collection never holds partial or duplicate
// records. There is no version field and no optimistic-concurrency check.
type Store struct {
	mu     sync.Mutex
	path   string
	photos []Photo
}

// NewStore loads the collection from path. A missing file is an empty
// collection, not an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read metadata %q: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.photos); err != nil {
		return nil, fmt.Errorf("parse metadata %q: %w", path, err)
	}
	return s, nil
}

// persistLocked rewrites the full JSON document via temp file + rename.
// Callers must hold mu.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.photos, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if s.photos == nil {
		raw = []byte("[]")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o640); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

// Append adds a record and persists. On persist failure the in-memory
// collection is rolled back so memory and disk never diverge.
func (s *Store) Append(p Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.photos = append(s.photos, p)
	if err := s.persistLocked(); err != nil {
		s.photos = s.photos[:len(s.photos)-1]
		return err
	}
	return nil
}

// Get returns a copy of the record with the given id, including soft-deleted ones.
func (s *Store) Get(id string) (Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.photos {
		if p.ID == id {
			return p, nil
		}
	}
	return Photo{}, ErrNotFound
}

// Update applies fn to the record with the given id and persists. fn
// returning an error aborts without mutating anything. On persist failure
// the previous record is restored.
func (s *Store) Update(id string, fn func(*Photo) error) (Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.photos {
		if s.photos[i].ID != id {
			continue
		}
		prev := s.photos[i]
		if err := fn(&s.photos[i]); err != nil {
			s.photos[i] = prev
			return Photo{}, err
		}
		if err := s.persistLocked(); err != nil {
			s.photos[i] = prev
			return Photo{}, err
		}
		return s.photos[i], nil
	}
	return Photo{}, ErrNotFound
}

// Remove deletes the record with the given id from the collection and persists.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.photos {
		if s.photos[i].ID != id {
			continue
		}
		removed := s.photos[i]
		s.photos = append(s.photos[:i], s.photos[i+1:]...)
		if err := s.persistLocked(); err != nil {
			s.photos = append(s.photos[:i], append([]Photo{removed}, s.photos[i:]...)...)
			return err
		}
		return nil
	}
	return ErrNotFound
}

// Clear drops every record and persists an empty collection.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.photos
	s.photos = nil
	if err := s.persistLocked(); err != nil {
		s.photos = prev
		return err
	}
	return nil
}

// List returns copies of the records in upload order. With includeDeleted
// false, soft-deleted records are excluded.
func (s *Store) List(includeDeleted bool) []Photo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Photo, 0, len(s.photos))
	for _, p := range s.photos {
		if p.Deleted && !includeDeleted {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Len reports the total record count, soft-deleted included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}
