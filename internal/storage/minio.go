package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio implements Storage over any S3-compatible object store.
// To switch to ArvanCloud Object Storage, change the endpoint and
// credentials — no code changes are needed since ArvanCloud is S3-compatible.
//
// Objects are always private. All read access goes through presigned URLs
// with a validity window counted from the moment of generation, so a URL
// handed out at upload time goes stale after signedTTL. The store never
// refreshes URLs on its own; callers needing a live URL for an old object
// must ask GetSignedURL for a fresh one.
type Minio struct {
	client    *minio.Client
	bucket    string
	signedTTL time.Duration
}

// NewMinio creates a client and ensures the bucket exists. The bucket is
// deliberately left without a public-read policy.
func NewMinio(endpoint, accessKey, secretKey, bucket, region string, useSSL bool, signedTTL time.Duration) (*Minio, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Printf("storage: created bucket %q", bucket)
	}

	return &Minio{
		client:    client,
		bucket:    bucket,
		signedTTL: signedTTL,
	}, nil
}

// SaveFile uploads the object then immediately presigns a retrieval URL with
// the default validity window. size must be the exact byte count (pass -1
// only if genuinely unknown — the client will buffer).
func (s *Minio) SaveFile(ctx context.Context, key string, r io.Reader, size int64, contentType string, meta map[string]string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object %q: %v", ErrWrite, key, err)
	}
	return s.GetSignedURL(ctx, key, s.signedTTL)
}

// GetSignedURL presigns a GET for key valid for expiry from now.
func (s *Minio) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return signed.String(), nil
}

// DeleteFile removes key. S3 deletes are blind, so the object is stat'ed
// first to report an already-absent key as (false, nil).
func (s *Minio) DeleteFile(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %q: %v", ErrDelete, key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("%w: remove %q: %v", ErrDelete, key, err)
	}
	return true, nil
}

// FileExists reports whether key exists. Backend faults are logged and
// reported as false — existence checks are advisory, used for diagnostics.
func (s *Minio) FileExists(ctx context.Context, key string) bool {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if !isNoSuchKey(err) {
			log.Printf("storage: stat %q: %v", key, err)
		}
		return false
	}
	return true
}

// ListFiles returns object keys under prefix, draining the listing channel.
func (s *Minio) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects: %w", object.Err)
		}
		keys = append(keys, object.Key)
	}
	return keys, nil
}

// DeleteAllFiles enumerates the full bucket and deletes object by object,
// sequentially, counting failures instead of aborting. Sequential deletion
// keeps backend rate limits predictable.
func (s *Minio) DeleteAllFiles(ctx context.Context) (WipeResult, error) {
	keys, err := s.ListFiles(ctx, "")
	if err != nil {
		return WipeResult{}, err
	}

	var res WipeResult
	res.Total = len(keys)
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			log.Printf("storage: wipe failed for %q: %v", key, err)
			res.Failed++
			continue
		}
		res.Deleted++
	}
	return res, nil
}

// Stats sums sizes from listing entries. O(n) remote pagination; not for
// request hot paths.
func (s *Minio) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return Stats{}, fmt.Errorf("list objects: %w", object.Err)
		}
		st.FileCount++
		st.TotalSize += object.Size
	}
	return st, nil
}

// URLsExpire reports true: every URL this backend issues has a hard expiry.
func (s *Minio) URLsExpire() bool {
	return true
}

// isNoSuchKey reports whether err is the backend's "object not found".
func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == 404
	}
	return false
}
