package photo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fotoshare/gallery/internal/storage"
)

// WipeConfirmation is the literal an admin must supply to bulk-wipe the
// gallery. A deliberate string, not a boolean flag, to reduce accidental
// invocation.
const WipeConfirmation = "DELETE ALL PHOTOS"

// DeleteOutcome reports what a hard delete actually did. Blob-deletion
// trouble never blocks metadata removal; the outcome makes that policy
// visible so operators can detect accumulating orphaned blobs.
type DeleteOutcome struct {
	MetadataRemoved bool
	BlobRemoved     bool
	BlobErr         error
}

// GalleryStats is the aggregate view over non-deleted photos.
type GalleryStats struct {
	TotalPhotos   int         `json:"totalPhotos"`
	ByTag         map[Tag]int `json:"byTag"`
	TotalSize     int64       `json:"totalSize"`
	UploadedToday int         `json:"uploadedToday"`
}

// Service sequences blob operations and metadata mutations so the two stay
// consistent. Metadata persistence always happens after the corresponding
// blob operation, never before: a crash between the two steps can only leave
// an orphan blob, never a metadata record pointing at nothing.
type Service struct {
	store *Store
	blob  storage.Storage
}

// NewService creates a Service over the given metadata store and blob backend.
func NewService(store *Store, blob storage.Storage) *Service {
	return &Service{store: store, blob: blob}
}

// newKey derives a collision-safe storage key: upload timestamp plus a
// random suffix plus the lowercased original extension, so concurrent
// uploads of identically-named files never clash.
func newKey(originalName string) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(suffix), ext)
}

// Upload persists the blob, then appends a metadata record. A blob-write
// failure surfaces as ErrUpload and creates no record — the system must
// never reference a photo whose blob does not exist.
func (s *Service) Upload(ctx context.Context, r io.Reader, size int64, originalName, mimetype string, tag Tag) (*Photo, error) {
	if !tag.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}

	key := newKey(originalName)
	url, err := s.blob.SaveFile(ctx, key, r, size, mimetype, map[string]string{
		"original-name": originalName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	p := Photo{
		ID:           uuid.NewString(),
		Filename:     key,
		OriginalName: originalName,
		URL:          url,
		Tag:          tag,
		People:       []string{},
		Faces:        []Face{},
		Size:         size,
		Mimetype:     mimetype,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.store.Append(p); err != nil {
		// The blob is already written; losing the record leaves only a
		// reclaimable orphan blob, which is the acceptable direction.
		return nil, fmt.Errorf("persist photo record: %w", err)
	}
	return &p, nil
}

// SoftDelete marks the record hidden. The blob is untouched and remains
// retrievable by direct URL; default listings exclude the record. Reversible
// in principle, and the default deletion used by end users.
func (s *Service) SoftDelete(ctx context.Context, id string) (*Photo, error) {
	now := time.Now().UTC()
	p, err := s.store.Update(id, func(p *Photo) error {
		p.Deleted = true
		p.DeletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// HardDelete attempts blob removal, then removes the metadata record
// regardless of the blob outcome. Metadata absence is the authoritative
// "gone" signal: a stray blob with no record is harmless, a record pointing
// at nothing is not.
func (s *Service) HardDelete(ctx context.Context, id string) (DeleteOutcome, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return DeleteOutcome{}, err
	}

	var out DeleteOutcome
	out.BlobRemoved, out.BlobErr = s.blob.DeleteFile(ctx, p.Filename)
	if out.BlobErr != nil {
		log.Printf("photo: blob cleanup failed for %s (%s): %v", id, p.Filename, out.BlobErr)
	}

	if err := s.store.Remove(id); err != nil {
		return out, err
	}
	out.MetadataRemoved = true
	return out, nil
}

// UpdateCategory changes the photo's tag.
func (s *Service) UpdateCategory(ctx context.Context, id string, tag Tag) (*Photo, error) {
	if !tag.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	p, err := s.store.Update(id, func(p *Photo) error {
		p.Tag = tag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePeopleAndFaces partially updates annotation fields; a nil pointer
// leaves that field unchanged.
func (s *Service) UpdatePeopleAndFaces(ctx context.Context, id string, people *[]string, faces *[]Face) (*Photo, error) {
	p, err := s.store.Update(id, func(p *Photo) error {
		if people != nil {
			p.People = *people
		}
		if faces != nil {
			p.Faces = *faces
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListVisible returns photos in upload order, excluding soft-deleted records
// unless includeDeleted is set.
func (s *Service) ListVisible(includeDeleted bool) []Photo {
	return s.store.List(includeDeleted)
}

// Stats aggregates over non-deleted photos. "uploadedToday" counts photos
// whose upload falls on the current UTC calendar day.
func (s *Service) Stats() GalleryStats {
	photos := s.store.List(false)

	st := GalleryStats{
		ByTag: map[Tag]int{TagWedding: 0, TagReception: 0, TagOther: 0},
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, p := range photos {
		st.TotalPhotos++
		st.ByTag[p.Tag]++
		st.TotalSize += p.Size
		if !p.UploadedAt.UTC().Truncate(24 * time.Hour).Before(today) {
			st.UploadedToday++
		}
	}
	return st
}

// WipeAll destroys every blob and every record. Gated behind the exact
// confirmation literal; anything else is ErrConfirmation and touches nothing.
// After blob cleanup the collection is cleared unconditionally — per-item
// blob failures are reported in the counts, not raised.
func (s *Service) WipeAll(ctx context.Context, confirm string) (storage.WipeResult, error) {
	if confirm != WipeConfirmation {
		return storage.WipeResult{}, ErrConfirmation
	}

	res, err := s.blob.DeleteAllFiles(ctx)
	if err != nil {
		log.Printf("photo: bulk blob wipe failed: %v", err)
	}
	if err := s.store.Clear(); err != nil {
		return res, fmt.Errorf("clear metadata: %w", err)
	}
	return res, nil
}
