package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
)

const (
	backupPrefix = "biblioteca_fabrica_contenido_"
	backupSuffix = ".json"
)

// Info describes a backup file.
type Info struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager keeps interchange documents in a backup directory.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager creates a Manager writing to dir.
func NewManager(dir string, logger *slog.Logger) *Manager {
	return &Manager{dir: dir, logger: logger}
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create writes lib to a new file named after now.
func (m *Manager) Create(ctx context.Context, lib *domain.Library, now time.Time) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	data, err := Marshal(lib)
	if err != nil {
		return nil, err
	}

	name := backupPrefix + now.Format("2006-01-02_150405") + backupSuffix
	path := filepath.Join(m.dir, name)

	// Written through a temp file; readers never see a partial backup.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("finalize backup: %w", err)
	}

	m.logger.Info("backup written",
		"path", path,
		"size", len(data),
		"books", len(lib.Books),
		"artisans", len(lib.Artisans),
	)

	return &Info{Name: name, Path: path, Size: int64(len(data)), CreatedAt: now}, nil
}

// List returns the backups, newest first. A missing directory yields none.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, err
	}

	backups := []Info{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Name:      name,
			Path:      filepath.Join(m.dir, name),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	slices.SortFunc(backups, func(a, b Info) int {
		return strings.Compare(b.Name, a.Name)
	})
	return backups, nil
}

// Load reads and decodes the named backup.
func (m *Manager) Load(ctx context.Context, name string) (*domain.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != filepath.Base(name) || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
		return nil, errors.NotFoundf("backup %s not found", name)
	}

	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("backup %s not found", name)
		}
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return Decode(data)
}
