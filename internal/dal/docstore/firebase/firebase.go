// Package firebase adapts the Firebase Realtime Database to docstore.Client.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/corray333/backend-labs/booking/internal/dal/docstore"
	"google.golang.org/api/option"
)

const defaultPollInterval = 2 * time.Second

// Store implements docstore.Client with the Firebase Admin SDK.
type Store struct {
	client       *db.Client
	pollInterval time.Duration
	// read is the one-shot read polled by ReadContinuous
	read func(ctx context.Context, path string) (docstore.Snapshot, error)
}

// MustNewStore connects to the database at databaseURL with the given service account key.
func MustNewStore(ctx context.Context, databaseURL, credentialsFile string, pollInterval time.Duration) *Store {
	app, err := firebase.NewApp(
		ctx,
		&firebase.Config{DatabaseURL: databaseURL},
		option.WithCredentialsFile(credentialsFile),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize Firebase app: %v", err))
	}

	client, err := app.Database(ctx)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize Firebase database client: %v", err))
	}

	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	s := &Store{
		client:       client,
		pollInterval: pollInterval,
	}
	s.read = s.ReadOnce

	return s
}

func (s *Store) ref(path string) (*db.Ref, error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}

	return s.client.NewRef(docstore.Join(segments...)), nil
}

// ReadOnce reads the value at path.
func (s *Store) ReadOnce(ctx context.Context, path string) (docstore.Snapshot, error) {
	ref, err := s.ref(path)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	var raw json.RawMessage
	if err := ref.Get(ctx, &raw); err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to read %q: %w", path, err)
	}

	return docstore.NewSnapshot(ref.Key, raw), nil
}

// ReadContinuous polls path and reports every distinct value.
// The Admin SDK exposes no listener API, so changes are detected by comparison.
func (s *Store) ReadContinuous(
	ctx context.Context,
	path string,
	onValue func(docstore.Snapshot),
	onError func(error),
) (func(), error) {
	if _, err := docstore.Split(path); err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		var last json.RawMessage
		first := true
		for {
			snap, err := s.read(pollCtx, path)
			switch {
			case err != nil:
				if pollCtx.Err() == nil && onError != nil {
					onError(err)
				}
			case first || !bytes.Equal(last, snap.Raw()):
				first = false
				last = snap.Raw()
				onValue(snap)
			}

			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
	}

	return stop, nil
}

// Write sets the value at path. A nil value deletes it.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}

	if value == nil {
		err = ref.Delete(ctx)
	} else {
		err = ref.Set(ctx, value)
	}
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}

	return nil
}

// Merge updates the given children of path.
func (s *Store) Merge(ctx context.Context, path string, fields map[string]any) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	for name := range fields {
		if err := docstore.ValidateKey(name); err != nil {
			return err
		}
	}

	if err := ref.Update(ctx, fields); err != nil {
		return fmt.Errorf("failed to merge into %q: %w", path, err)
	}

	return nil
}

// Insert pushes value under a generated key.
func (s *Store) Insert(ctx context.Context, path string, value any) (string, error) {
	ref, err := s.ref(path)
	if err != nil {
		return "", err
	}

	child, err := ref.Push(ctx, value)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %q: %w", path, err)
	}

	return child.Key, nil
}

// Close is a no-op: the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}
