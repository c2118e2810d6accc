package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/sse"
)

// Library loads every section.
func (s *Store) Library(ctx context.Context) (*domain.Library, error) {
	books, err := s.Books.All(ctx)
	if err != nil {
		return nil, err
	}
	artisans, err := s.Artisans.All(ctx)
	if err != nil {
		return nil, err
	}
	collections, err := s.Collections.All(ctx)
	if err != nil {
		return nil, err
	}

	lib := &domain.Library{Books: books, Artisans: artisans, Collections: collections}
	lib.Normalize()
	return lib, nil
}

// ReplaceLibrary overwrites books, artisans and collections.
func (s *Store) ReplaceLibrary(ctx context.Context, lib *domain.Library) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLibrary(ctx, lib)
}

// Update loads the library, applies fn and writes every section back. If fn
// fails nothing is written. Use it for changes spanning several sections.
func (s *Store) Update(ctx context.Context, fn func(lib *domain.Library) error) (*domain.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.Library(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(lib); err != nil {
		return nil, err
	}
	if err := s.saveLibrary(ctx, lib); err != nil {
		return nil, err
	}
	return lib, nil
}

func (s *Store) saveLibrary(ctx context.Context, lib *domain.Library) error {
	lib.Normalize()
	if err := s.Books.save(ctx, lib.Books); err != nil {
		return err
	}
	if err := s.Artisans.save(ctx, lib.Artisans); err != nil {
		return err
	}
	return s.Collections.save(ctx, lib.Collections)
}

// Settings returns the saved API key and dark-mode flag. Missing or
// unreadable values read as empty and false.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	var settings domain.Settings
	apiKey, err := s.apiKey()
	if err != nil {
		return domain.Settings{}, err
	}
	settings.APIKey = apiKey
	if err := s.getJSON(KeyDarkMode, &settings.DarkMode); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// SetAPIKey saves the generation API credential.
func (s *Store) SetAPIKey(ctx context.Context, apiKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.setJSON(KeyAPIKey, apiKey); err != nil {
		return err
	}
	s.eventEmitter.Emit(sse.NewLibraryUpdatedEvent(SectionSettings, 1))
	return nil
}

// SetDarkMode saves the dark-mode flag.
func (s *Store) SetDarkMode(ctx context.Context, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.setJSON(KeyDarkMode, enabled); err != nil {
		return err
	}
	s.eventEmitter.Emit(sse.NewLibraryUpdatedEvent(SectionSettings, 1))
	return nil
}

// apiKey reads the credential. Values written as plain text rather than a
// JSON string are returned as is.
func (s *Store) apiKey() (string, error) {
	raw, err := s.kv.Get(KeyAPIKey)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", KeyAPIKey, err)
	}

	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return strings.TrimSpace(string(raw)), nil
	}
	return key, nil
}

// getJSON decodes key into dest. A missing key leaves dest untouched; so
// does an unreadable value, which is logged.
func (s *Store) getJSON(key string, dest any) error {
	raw, err := s.kv.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("stored value is unreadable, using default", "key", key, "error", err)
	}
	return nil
}

func (s *Store) setJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := s.kv.Set(key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
