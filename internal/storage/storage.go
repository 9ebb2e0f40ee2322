// Package storage puts screenshots into a public object bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrObjectExists = errors.New("object already exists")

// BlobStore stores objects under keys and exposes them at public URLs.
type BlobStore interface {
	// Put writes a new object. It fails with ErrObjectExists instead of
	// overwriting an existing key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
	// KeyFromURL recovers the key of a URL returned by PublicURL.
	KeyFromURL(url string) (string, bool)
	Bucket() string
}

// keyFromURL strips the public prefix, falling back to the path after
// "/<bucket>/" for URLs minted under a different host.
func keyFromURL(url, prefix, bucket string) (string, bool) {
	if prefix != "" && strings.HasPrefix(url, prefix) {
		key := strings.TrimPrefix(url, prefix)
		return key, key != ""
	}
	marker := "/" + bucket + "/"
	if i := strings.Index(url, marker); i >= 0 {
		key := url[i+len(marker):]
		if q := strings.IndexAny(key, "?#"); q >= 0 {
			key = key[:q]
		}
		return key, key != ""
	}
	return "", false
}
