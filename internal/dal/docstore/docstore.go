// Package docstore defines the client contract of the hierarchical document
// store the service persists into. Documents live in a JSON tree addressed by
// slash-separated paths such as "orders/<key>".
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPath is returned for paths with empty or forbidden segments.
	ErrInvalidPath = errors.New("invalid path")
	// ErrUnsupportedPath is returned when a backend cannot address the path depth.
	ErrUnsupportedPath = errors.New("unsupported path")
)

// Client is the store contract consumed by the repositories.
type Client interface {
	// ReadOnce reads the current value at path exactly once.
	ReadOnce(ctx context.Context, path string) (Snapshot, error)
	// ReadContinuous calls onValue with the current value at path and again after
	// every change below it, until stop is called or ctx is done.
	ReadContinuous(
		ctx context.Context,
		path string,
		onValue func(Snapshot),
		onError func(error),
	) (stop func(), err error)
	// Write replaces the value at path. A nil value deletes it.
	Write(ctx context.Context, path string, value any) error
	// Merge sets the given children of path, leaving the others untouched.
	// The path is created if absent.
	Merge(ctx context.Context, path string, fields map[string]any) error
	// Insert stores value under a newly generated child key of path and returns the key.
	Insert(ctx context.Context, path string, value any) (string, error)
	// Close releases the client resources.
	Close() error
}

// Snapshot is the value read at a path.
type Snapshot struct {
	key string
	raw json.RawMessage
}

// NewSnapshot creates a snapshot for key holding raw JSON.
func NewSnapshot(key string, raw []byte) Snapshot {
	return Snapshot{key: key, raw: raw}
}

// Key returns the last segment of the snapshot path.
func (s Snapshot) Key() string {
	return s.key
}

// Exists reports whether a value is stored at the snapshot path.
func (s Snapshot) Exists() bool {
	trimmed := bytes.TrimSpace(s.raw)

	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Raw returns the JSON encoding of the value.
func (s Snapshot) Raw() json.RawMessage {
	return s.raw
}

// Unmarshal decodes the value into v. Absent values leave v untouched.
func (s Snapshot) Unmarshal(v any) error {
	if !s.Exists() {
		return nil
	}
	if err := json.Unmarshal(s.raw, v); err != nil {
		return fmt.Errorf("failed to decode snapshot %q: %w", s.key, err)
	}

	return nil
}

// Split validates path and returns its segments. The root path has no segments.
func Split(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, nil
	}

	segments := strings.Split(trimmed, "/")
	for _, s := range segments {
		if err := ValidateKey(s); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}

	return segments, nil
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// ValidateKey checks a single path segment.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/.#$[]") {
		return fmt.Errorf("%w: key %q", ErrInvalidPath, key)
	}

	return nil
}

// NewKey returns a new lexicographically time-ordered key.
func NewKey() string {
	return uuid.Must(uuid.NewV7()).String()
}
