package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fabricaapp/fabrica-server/internal/sse"
)

// List is one library section stored as a single JSON array.
type List[T any] struct {
	store    *Store
	key      string
	section  string
	fallback func() []T

	normalize func([]T)
	afterSave func(context.Context, []T)
}

func newList[T any](s *Store, key, section string, fallback func() []T) *List[T] {
	return &List[T]{store: s, key: key, section: section, fallback: fallback}
}

// Key returns the store key of the section.
func (l *List[T]) Key() string {
	return l.key
}

// All returns the stored section. A missing key yields the section's
// default; an unreadable value is logged and also yields the default.
func (l *List[T]) All(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := l.store.kv.Get(l.key)
	if errors.Is(err, ErrKeyNotFound) {
		return l.fallback(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.key, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		l.store.logger.Warn("stored section is unreadable, using defaults",
			"key", l.key,
			"error", err,
		)
		return l.fallback(), nil
	}
	if l.normalize != nil {
		l.normalize(items)
	}
	return items, nil
}

// Save replaces the whole section.
func (l *List[T]) Save(ctx context.Context, items []T) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return l.save(ctx, items)
}

// Mutate reads the section, applies fn and writes the result back. If fn
// fails nothing is written.
func (l *List[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) ([]T, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	items, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := fn(items)
	if err != nil {
		return nil, err
	}
	if err := l.save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// save writes the section; callers hold store.mu.
func (l *List[T]) save(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	if l.normalize != nil {
		l.normalize(items)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", l.section, err)
	}
	if err := l.store.kv.Set(l.key, data); err != nil {
		return fmt.Errorf("write %s: %w", l.key, err)
	}

	l.store.eventEmitter.Emit(sse.NewLibraryUpdatedEvent(l.section, len(items)))
	if l.afterSave != nil {
		l.afterSave(ctx, items)
	}
	return nil
}
