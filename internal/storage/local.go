package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Local implements Storage over a directory tree. Each object is a single
// file named exactly by its key inside the root directory.
//
// URLs for this backend embed the gallery's static access token and are
// stable forever — callers must not expect refresh behavior. URLsExpire
// reports false so the rest of the application can tell the two backends'
// URL semantics apart without inspecting URL shape.
type Local struct {
	root        string
	baseURL     string
	accessToken string
}

// NewLocal creates a Local backend rooted at root, creating the directory if needed.
func NewLocal(root, baseURL, accessToken string) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Local{
		root:        absRoot,
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
	}, nil
}

// Root returns the absolute storage root directory. Used by the local-mode
// blob-serving handler.
func (l *Local) Root() string {
	return l.root
}

// abs resolves key to a concrete filesystem path, rejecting anything that
// would escape the storage root.
func (l *Local) abs(key string) (string, error) {
	joined := filepath.Join(l.root, filepath.Clean(filepath.FromSlash(key)))
	rel, err := filepath.Rel(l.root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return joined, nil
}

// url composes the stable retrieval URL for key.
func (l *Local) url(key string) string {
	return fmt.Sprintf("%s/uploads/%s?token=%s", l.baseURL, key, l.accessToken)
}

// SaveFile writes the full object via a temp file + atomic rename, so a
// partial write is never visible under the final key.
func (l *Local) SaveFile(ctx context.Context, key string, r io.Reader, size int64, contentType string, meta map[string]string) (string, error) {
	dest, err := l.abs(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	tmp := dest + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("%w: open tmp %q: %v", ErrWrite, tmp, err)
	}

	_, werr := io.Copy(f, r)
	cerr := f.Close()

	if werr != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: write %q: %v", ErrWrite, key, werr)
	}
	if cerr != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: flush %q: %v", ErrWrite, key, cerr)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: rename to %q: %v", ErrWrite, dest, err)
	}

	return l.url(key), nil
}

// GetSignedURL returns the stable URL for key. Local URLs never expire, so
// expiry is ignored.
func (l *Local) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := l.abs(key); err != nil {
		return "", err
	}
	return l.url(key), nil
}

// DeleteFile unlinks the file. An already-missing file is a successful no-op.
func (l *Local) DeleteFile(ctx context.Context, key string) (bool, error) {
	abs, err := l.abs(key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDelete, err)
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: remove %q: %v", ErrDelete, key, err)
	}
	return true, nil
}

// FileExists reports whether key exists under the root.
func (l *Local) FileExists(ctx context.Context, key string) bool {
	abs, err := l.abs(key)
	if err != nil {
		log.Printf("storage: exists check for invalid key %q: %v", key, err)
		return false
	}
	_, err = os.Stat(abs)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("storage: stat %q: %v", key, err)
		}
		return false
	}
	return true
}

// ListFiles returns the keys of regular files under root matching prefix.
func (l *Local) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if prefix == "" || strings.HasPrefix(e.Name(), prefix) {
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}

// DeleteAllFiles removes every file under root, counting per-item outcomes.
func (l *Local) DeleteAllFiles(ctx context.Context) (WipeResult, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return WipeResult{}, fmt.Errorf("read storage root: %w", err)
	}

	var res WipeResult
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		res.Total++
		if err := os.Remove(filepath.Join(l.root, e.Name())); err != nil {
			log.Printf("storage: wipe failed for %q: %v", e.Name(), err)
			res.Failed++
			continue
		}
		res.Deleted++
	}
	return res, nil
}

// Stats walks the root directory and sums file sizes.
func (l *Local) Stats(ctx context.Context) (Stats, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return Stats{}, fmt.Errorf("read storage root: %w", err)
	}

	var st Stats
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Printf("storage: stat %q during stats: %v", e.Name(), err)
			continue
		}
		st.FileCount++
		st.TotalSize += info.Size()
	}
	return st, nil
}

// URLsExpire reports false: local URLs embed a static token and are stable.
func (l *Local) URLsExpire() bool {
	return false
}
