// Package postgres stores documents as JSONB rows, one row per collection child.
// Only collection ("orders") and document ("orders/<key>") paths are addressable.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/booking/internal/dal/docstore"
	"github.com/corray333/backend-labs/booking/internal/dal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	table         = "documents"
	notifyChannel = "documents_changed"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements docstore.Client on top of Postgres.
type Store struct {
	client *postgres.Client
}

// NewStore creates a new Store.
func NewStore(client *postgres.Client) *Store {
	return &Store{
		client: client,
	}
}

type location struct {
	collection string
	key        string
}

func (l location) isDocument() bool {
	return l.key != ""
}

func parse(path string) (location, error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return location{}, err
	}

	switch len(segments) {
	case 1:
		return location{collection: segments[0]}, nil
	case 2:
		return location{collection: segments[0], key: segments[1]}, nil
	default:
		return location{}, fmt.Errorf("%w: %q", docstore.ErrUnsupportedPath, path)
	}
}

// ReadOnce reads a document or a whole collection.
func (s *Store) ReadOnce(ctx context.Context, path string) (docstore.Snapshot, error) {
	loc, err := parse(path)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	if loc.isDocument() {
		return s.readDocument(ctx, loc)
	}

	return s.readCollection(ctx, loc.collection)
}

func (s *Store) readDocument(ctx context.Context, loc location) (docstore.Snapshot, error) {
	query, args, err := psql.Select("value").
		From(table).
		Where(sq.Eq{"collection": loc.collection, "key": loc.key}).
		ToSql()
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var raw []byte
	err = s.client.Pool().QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return docstore.NewSnapshot(loc.key, nil), nil
	}
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to read document: %w", err)
	}

	return docstore.NewSnapshot(loc.key, raw), nil
}

func (s *Store) readCollection(ctx context.Context, collection string) (docstore.Snapshot, error) {
	query, args, err := psql.Select("key", "value").
		From(table).
		Where(sq.Eq{"collection": collection}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := s.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to read collection: %w", err)
	}
	defer rows.Close()

	children := map[string]json.RawMessage{}
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return docstore.Snapshot{}, fmt.Errorf("failed to scan document: %w", err)
		}
		children[key] = raw
	}
	if err := rows.Err(); err != nil {
		return docstore.Snapshot{}, fmt.Errorf("rows iteration error: %w", err)
	}

	if len(children) == 0 {
		return docstore.NewSnapshot(collection, nil), nil
	}

	raw, err := json.Marshal(children)
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to encode collection: %w", err)
	}

	return docstore.NewSnapshot(collection, raw), nil
}

// ReadContinuous listens for change notifications on the collection of path
// and re-reads path after each one.
func (s *Store) ReadContinuous(
	ctx context.Context,
	path string,
	onValue func(docstore.Snapshot),
	onError func(error),
) (func(), error) {
	loc, err := parse(path)
	if err != nil {
		return nil, err
	}

	conn, err := s.client.Pool().Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()

		return nil, fmt.Errorf("failed to listen for changes: %w", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if _, err := conn.Exec(context.Background(), "UNLISTEN "+notifyChannel); err != nil {
				slog.Warn("Failed to unlisten document changes", "error", err)
			}
			conn.Release()
		}()

		emit := func() bool {
			snap, err := s.ReadOnce(listenCtx, path)
			if err != nil {
				if listenCtx.Err() == nil && onError != nil {
					onError(err)
				}

				return false
			}
			onValue(snap)

			return true
		}

		if !emit() {
			return
		}

		for {
			notification, err := conn.Conn().WaitForNotification(listenCtx)
			if err != nil {
				if listenCtx.Err() == nil && onError != nil {
					onError(fmt.Errorf("failed to wait for changes: %w", err))
				}

				return
			}
			if notification.Payload != loc.collection {
				continue
			}
			if !emit() {
				return
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
	}

	return stop, nil
}

// Write upserts a document or replaces a whole collection. A nil value deletes.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	loc, err := parse(path)
	if err != nil {
		return err
	}

	if loc.isDocument() {
		if value == nil {
			return s.deleteWhere(ctx, s.client.Pool(), sq.Eq{"collection": loc.collection, "key": loc.key})
		}

		return s.upsert(ctx, s.client.Pool(), loc, value, "EXCLUDED.value")
	}

	children, err := toChildren(value)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.client.Pool(), func(tx pgx.Tx) error {
		if err := s.deleteWhere(ctx, tx, sq.Eq{"collection": loc.collection}); err != nil {
			return err
		}
		for key, child := range children {
			if err := s.upsert(ctx, tx, location{collection: loc.collection, key: key}, child, "EXCLUDED.value"); err != nil {
				return err
			}
		}

		return nil
	})
}

// Merge merges fields into a document, or upserts each field as a child
// document when path is a collection.
func (s *Store) Merge(ctx context.Context, path string, fields map[string]any) error {
	loc, err := parse(path)
	if err != nil {
		return err
	}
	for name := range fields {
		if err := docstore.ValidateKey(name); err != nil {
			return err
		}
	}

	if loc.isDocument() {
		return s.upsert(ctx, s.client.Pool(), loc, fields, "documents.value || EXCLUDED.value")
	}

	return pgx.BeginFunc(ctx, s.client.Pool(), func(tx pgx.Tx) error {
		for key, child := range fields {
			childLoc := location{collection: loc.collection, key: key}
			if child == nil {
				if err := s.deleteWhere(ctx, tx, sq.Eq{"collection": childLoc.collection, "key": key}); err != nil {
					return err
				}

				continue
			}
			if err := s.upsert(ctx, tx, childLoc, child, "EXCLUDED.value"); err != nil {
				return err
			}
		}

		return nil
	})
}

// Insert stores value as a new document of the collection at path.
func (s *Store) Insert(ctx context.Context, path string, value any) (string, error) {
	loc, err := parse(path)
	if err != nil {
		return "", err
	}
	if loc.isDocument() {
		return "", fmt.Errorf("%w: insert into document %q", docstore.ErrUnsupportedPath, path)
	}

	key := docstore.NewKey()
	if err := s.upsert(ctx, s.client.Pool(), location{collection: loc.collection, key: key}, value, "EXCLUDED.value"); err != nil {
		return "", err
	}

	return key, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	s.client.Close()

	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// upsert writes value at loc; onConflict is the expression assigned to value
// when the document already exists.
func (s *Store) upsert(ctx context.Context, conn execer, loc location, value any, onConflict string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query, args, err := psql.Insert(table).
		Columns("collection", "key", "value").
		Values(loc.collection, loc.key, raw).
		Suffix("ON CONFLICT (collection, key) DO UPDATE SET value = " + onConflict + ", updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

func (s *Store) deleteWhere(ctx context.Context, conn execer, where sq.Eq) error {
	query, args, err := psql.Delete(table).Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	return nil
}

// toChildren converts a collection value into its child documents.
func toChildren(value any) (map[string]json.RawMessage, error) {
	children := map[string]json.RawMessage{}
	if value == nil {
		return children, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := json.Unmarshal(raw, &children); err != nil {
		return nil, fmt.Errorf("%w: collection value must be an object", docstore.ErrUnsupportedPath)
	}
	for key := range children {
		if err := docstore.ValidateKey(key); err != nil {
			return nil, err
		}
	}

	return children, nil
}
