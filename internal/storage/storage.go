// Package storage defines the blob storage abstraction for the photo gallery.
// Two implementations exist: Local (filesystem) and Minio (any S3-compatible
// object store — MinIO, ArvanCloud, AWS S3). The rest of the application only
// sees the Storage interface; the active backend is chosen once at startup
// by the factory in this package.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrWrite is returned when a backend fails to persist an object.
var ErrWrite = errors.New("storage write failed")

// ErrDelete is returned on a genuine backend fault during deletion.
// A missing object is never an error; DeleteFile reports it as (false, nil).
var ErrDelete = errors.New("storage delete failed")

// ErrConfig is returned by the factory when required backend settings
// cannot be resolved. It is fatal: the process must not serve traffic
// with an ambiguous storage backend.
var ErrConfig = errors.New("storage configuration invalid")

// WipeResult reports per-item counts from a bulk deletion.
// Partial failure is the expected case at scale, so individual failures
// are counted rather than raised.
type WipeResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// Stats holds aggregate usage for a backend.
type Stats struct {
	FileCount int   `json:"fileCount"`
	TotalSize int64 `json:"totalSize"`
}

// Storage is the contract every blob backend satisfies.
type Storage interface {
	// SaveFile persists r under key and returns a URL usable to retrieve the
	// content. meta is advisory object metadata; backends may ignore it.
	// Safe to call concurrently with distinct keys. Fails with ErrWrite on
	// any I/O or permission fault; partial writes are never visible.
	SaveFile(ctx context.Context, key string, r io.Reader, size int64, contentType string, meta map[string]string) (string, error)

	// GetSignedURL returns a fresh retrieval URL for an existing object.
	// Backends whose URLs never expire return their stable URL and ignore expiry.
	GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// DeleteFile removes the object. Deletion is idempotent: an already-absent
	// key reports (false, nil). ErrDelete only on a genuine backend fault.
	DeleteFile(ctx context.Context, key string) (bool, error)

	// FileExists reports whether key exists. Advisory only: backend faults are
	// logged and reported as false, never raised.
	FileExists(ctx context.Context, key string) bool

	// ListFiles returns the keys under prefix. Enumeration may be capped at
	// the backend's own page size.
	ListFiles(ctx context.Context, prefix string) ([]string, error)

	// DeleteAllFiles removes every stored object, tolerating individual
	// failures. A single stuck object must not block cleanup of the rest.
	DeleteAllFiles(ctx context.Context) (WipeResult, error)

	// Stats sums per-object sizes. O(n) on the backend; not for hot paths.
	Stats(ctx context.Context) (Stats, error)

	// URLsExpire reports whether URLs issued by this backend carry an expiry.
	// Local URLs are stable; cloud signed URLs go stale after their validity
	// window and must be regenerated via GetSignedURL.
	URLsExpire() bool
}
