// Package storage persists uploaded image blobs.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrInvalidKey is returned for empty keys and keys that leave the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ImageStore saves and removes blobs addressed by slash-separated keys
// such as "uploads/recipe/7/<uuid>.jpg".
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	// Delete succeeds when the blob is already gone.
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// cleanKey normalises a key and rejects absolute or escaping paths.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
