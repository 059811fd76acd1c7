// Package photo manages the gallery's photo records: the JSON-backed
// metadata store, the upload/delete lifecycle, and the HTTP handlers that
// expose them.
package photo

import (
	"errors"
	"time"
)

// Tag is the fixed photo category enumeration.
type Tag string

// Valid photo tags. No other value is ever persisted.
const (
	TagWedding   Tag = "wedding"
	TagReception Tag = "reception"
	TagOther     Tag = "other"
)

// Valid reports whether t is one of the three allowed tags.
func (t Tag) Valid() bool {
	switch t {
	case TagWedding, TagReception, TagOther:
		return true
	}
	return false
}

// ErrNotFound is returned when no photo matches the given id.
var ErrNotFound = errors.New("photo not found")

// ErrInvalidTag is returned when a tag is outside the fixed enumeration.
var ErrInvalidTag = errors.New("invalid tag")

// ErrUpload wraps the underlying blob-write failure of a failed upload.
var ErrUpload = errors.New("failed to upload")

// ErrConfirmation is returned when a bulk wipe is requested without the
// exact confirmation literal.
var ErrConfirmation = errors.New("wipe confirmation mismatch")

// Face is a single face-detection annotation. Produced by an external
// collaborator; merely stored here.
type Face struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Person     string  `json:"person,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Photo is one uploaded image. The metadata collection of these records is
// the single source of truth for which photos exist; the blob store holds no
// authoritative metadata of its own.
type Photo struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"` // storage-layer object key
	OriginalName string `json:"originalName"`

	// URL is the retrieval URL captured at upload time. For the cloud
	// backend it is a signed URL with a hard expiry and must be treated as
	// regenerable, not permanently valid.
	URL string `json:"url"`

	Tag    Tag      `json:"tag"`
	People []string `json:"people"`
	Faces  []Face   `json:"faces"`

	Size       int64     `json:"size"`
	Mimetype   string    `json:"mimetype"`
	UploadedAt time.Time `json:"uploadedAt"`

	// Soft-delete marker: when set, the record is excluded from default
	// listings but the underlying blob may still exist.
	Deleted   bool       `json:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}
