package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
)

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/backups",
		Summary:     "List backups",
		Description: "Lists stored library snapshots, newest first",
		Tags:        []string{"Backups"},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBackup",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/backups",
		Summary:       "Create backup",
		Description:   "Writes the current library to the backup directory",
		Tags:          []string{"Backups"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/backups/{name}/restore",
		Summary:     "Restore backup",
		Description: "Replaces the whole library with a backup's contents",
		Tags:        []string{"Backups"},
	}, s.handleRestoreBackup)
}

// ListBackupsOutput wraps the backup list for huma.
type ListBackupsOutput struct {
	Body []dto.Backup
}

// BackupOutput wraps one backup for huma.
type BackupOutput struct {
	Body dto.Backup
}

// RestoreBackupInput names the backup to restore.
type RestoreBackupInput struct {
	Name string `path:"name" doc:"Backup file name"`
}

func (s *Server) handleListBackups(ctx context.Context, _ *struct{}) (*ListBackupsOutput, error) {
	backups, err := s.services.Library.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	return &ListBackupsOutput{Body: dto.NewBackups(backups)}, nil
}

func (s *Server) handleCreateBackup(ctx context.Context, _ *struct{}) (*BackupOutput, error) {
	info, err := s.services.Library.CreateBackup(ctx)
	if err != nil {
		return nil, err
	}
	return &BackupOutput{Body: dto.NewBackup(info)}, nil
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *RestoreBackupInput) (*ImportOutput, error) {
	lib, err := s.services.Library.RestoreBackup(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: dto.NewImportSummary(lib)}, nil
}
