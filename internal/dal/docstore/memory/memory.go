// Package memory is an in-process document store with change notifications.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/corray333/backend-labs/booking/internal/dal/docstore"
)

// Store keeps the document tree in memory.
type Store struct {
	mu     sync.RWMutex
	root   map[string]any
	subs   map[int]*subscription
	nextID int
	newKey func() string
}

type option func(*Store)

// WithKeyGenerator overrides the key generator used by Insert.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithKeyGenerator(newKey func() string) option {
	return func(s *Store) {
		s.newKey = newKey
	}
}

// NewStore creates an empty store.
func NewStore(opts ...option) *Store {
	s := &Store{
		root:   map[string]any{},
		subs:   map[int]*subscription{},
		newKey: docstore.NewKey,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ReadOnce returns the value at path.
func (s *Store) ReadOnce(_ context.Context, path string) (docstore.Snapshot, error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot(segments)
}

// ReadContinuous delivers the value at path now and after every change affecting it.
// Pending values are coalesced: a slow onValue only sees the latest one.
func (s *Store) ReadContinuous(
	ctx context.Context,
	path string,
	onValue func(docstore.Snapshot),
	onError func(error),
) (func(), error) {
	segments, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		segments: segments,
		ch:       make(chan docstore.Snapshot, 1),
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	snap, err := s.snapshot(segments)
	if err != nil {
		s.mu.Unlock()

		return nil, err
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	sub.push(snap)
	s.mu.Unlock()

	go sub.run(ctx, onValue)

	stop := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.close()
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
			if onError != nil && ctx.Err() != context.Canceled {
				onError(ctx.Err())
			}
		case <-sub.done:
		}
	}()

	return stop, nil
}

// Write replaces the value at path; nil deletes it.
func (s *Store) Write(_ context.Context, path string, value any) error {
	segments, err := docstore.Split(path)
	if err != nil {
		return err
	}
	normalized, err := normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(segments, normalized)
	s.notify(segments)

	return nil
}

// Merge sets each field as a child of path.
func (s *Store) Merge(_ context.Context, path string, fields map[string]any) error {
	segments, err := docstore.Split(path)
	if err != nil {
		return err
	}

	updates := make(map[string]any, len(fields))
	for name, value := range fields {
		if err := docstore.ValidateKey(name); err != nil {
			return err
		}
		normalized, err := normalize(value)
		if err != nil {
			return err
		}
		updates[name] = normalized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, value := range updates {
		s.set(append(segments[:len(segments):len(segments)], name), value)
	}
	s.notify(segments)

	return nil
}

// Insert stores value under a new child key of path.
func (s *Store) Insert(ctx context.Context, path string, value any) (string, error) {
	key := s.newKey()
	if err := s.Write(ctx, docstore.Join(strings.Trim(path, "/"), key), value); err != nil {
		return "", err
	}

	return key, nil
}

// Close stops every subscription.
func (s *Store) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = map[int]*subscription{}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}

	return nil
}

func (s *Store) snapshot(segments []string) (docstore.Snapshot, error) {
	key := ""
	if len(segments) > 0 {
		key = segments[len(segments)-1]
	}

	value, ok := lookup(s.root, segments)
	if !ok {
		return docstore.NewSnapshot(key, nil), nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to encode value at %q: %w", docstore.Join(segments...), err)
	}

	return docstore.NewSnapshot(key, raw), nil
}

// set must be called with s.mu held.
func (s *Store) set(segments []string, value any) {
	if len(segments) == 0 {
		root, ok := value.(map[string]any)
		if !ok {
			root = map[string]any{}
		}
		s.root = root

		return
	}

	if value == nil {
		remove(s.root, segments)

		return
	}

	node := s.root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

// notify must be called with s.mu held.
func (s *Store) notify(changed []string) {
	for _, sub := range s.subs {
		if !related(sub.segments, changed) {
			continue
		}
		snap, err := s.snapshot(sub.segments)
		if err != nil {
			continue
		}
		sub.push(snap)
	}
}

func lookup(root map[string]any, segments []string) (any, bool) {
	var node any = root
	for _, seg := range segments {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	if m, ok := node.(map[string]any); ok && len(m) == 0 {
		return nil, false
	}

	return node, true
}

// remove deletes the value at segments and prunes parents left empty.
func remove(node map[string]any, segments []string) {
	if len(segments) == 1 {
		delete(node, segments[0])

		return
	}

	child, ok := node[segments[0]].(map[string]any)
	if !ok {
		return
	}
	remove(child, segments[1:])
	if len(child) == 0 {
		delete(node, segments[0])
	}
}

// related reports whether a change at b is visible from a or vice versa.
func related(a, b []string) bool {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// normalize converts value to its JSON tree form so stored values never alias caller data.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	if m, ok := normalized.(map[string]any); ok && len(m) == 0 {
		return nil, nil
	}

	return normalized, nil
}

type subscription struct {
	segments []string
	ch       chan docstore.Snapshot
	done     chan struct{}
	once     sync.Once
}

// push replaces any pending snapshot with snap. It never blocks.
func (s *subscription) push(snap docstore.Snapshot) {
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

func (s *subscription) run(ctx context.Context, onValue func(docstore.Snapshot)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case snap := <-s.ch:
			onValue(snap)
		}
	}
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.done)
	})
}
