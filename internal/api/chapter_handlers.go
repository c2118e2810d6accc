package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/textfmt"
)

func (s *Server) registerChapterRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getChapter",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books/{id}/chapters/{chapterId}",
		Summary:     "Get chapter",
		Description: "Returns a chapter with its base text and generated entries",
		Tags:        []string{"Chapters"},
	}, s.handleGetChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleChapter",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/books/{id}/chapters/{chapterId}/toggle",
		Summary:     "Toggle chapter",
		Description: "Flips the chapter's completed flag",
		Tags:        []string{"Chapters"},
	}, s.handleToggleChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveBaseText",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/books/{id}/chapters/{chapterId}/base",
		Summary:     "Save base text",
		Description: "Stores the chapter's base text without running any artisan. Generated entries are kept.",
		Tags:        []string{"Chapters"},
	}, s.handleSaveBaseText)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteChapterContent",
		Method:      http.MethodDelete,
		Path:        apiPrefix + "/books/{id}/chapters/{chapterId}/contents/{artisanId}",
		Summary:     "Delete content",
		Description: "Removes the entry one artisan produced for the chapter",
		Tags:        []string{"Chapters"},
	}, s.handleDeleteContent)

	huma.Register(s.api, huma.Operation{
		OperationID: "downloadChapterArchive",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books/{id}/chapters/{chapterId}/archive",
		Summary:     "Download chapter archive",
		Description: "Returns a zip with the base text and one file per generated entry",
		Tags:        []string{"Chapters"},
	}, s.handleDownloadArchive)
}

// ChapterPathInput identifies a chapter.
type ChapterPathInput struct {
	ID        string `path:"id" doc:"Book ID"`
	ChapterID string `path:"chapterId" doc:"Chapter ID"`
}

// ChapterOutput wraps a chapter response for huma.
type ChapterOutput struct {
	Body dto.Chapter
}

// SaveBaseTextRequest is the request body for saving base text.
type SaveBaseTextRequest struct {
	Text   string `json:"text,omitempty" doc:"Base text"`
	Format string `json:"format,omitempty" doc:"Markup of text: plain (default) or html" validate:"omitempty,oneof=plain html"`
}

// SaveBaseTextInput wraps the save base text request for huma.
type SaveBaseTextInput struct {
	ID        string `path:"id" doc:"Book ID"`
	ChapterID string `path:"chapterId" doc:"Chapter ID"`
	Body      SaveBaseTextRequest
}

// DeleteContentInput identifies one content entry.
type DeleteContentInput struct {
	ID        string `path:"id" doc:"Book ID"`
	ChapterID string `path:"chapterId" doc:"Chapter ID"`
	ArtisanID string `path:"artisanId" doc:"Artisan ID of the entry"`
}

func (s *Server) handleGetChapter(ctx context.Context, input *ChapterPathInput) (*ChapterOutput, error) {
	_, chapter, err := s.services.Book.GetChapter(ctx, domain.NewID(input.ID), domain.NewID(input.ChapterID))
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: dto.NewChapter(chapter)}, nil
}

func (s *Server) handleToggleChapter(ctx context.Context, input *ChapterPathInput) (*ChapterOutput, error) {
	chapter, err := s.services.Book.ToggleChapter(ctx, domain.NewID(input.ID), domain.NewID(input.ChapterID))
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: dto.NewChapter(chapter)}, nil
}

func (s *Server) handleSaveBaseText(ctx context.Context, input *SaveBaseTextInput) (*ChapterOutput, error) {
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	chapter, err := s.services.Book.SaveBaseText(ctx,
		domain.NewID(input.ID),
		domain.NewID(input.ChapterID),
		input.Body.Text,
		textfmt.Format(input.Body.Format),
	)
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: dto.NewChapter(chapter)}, nil
}

func (s *Server) handleDeleteContent(ctx context.Context, input *DeleteContentInput) (*ChapterOutput, error) {
	chapter, err := s.services.Book.DeleteContent(ctx,
		domain.NewID(input.ID),
		domain.NewID(input.ChapterID),
		domain.NewID(input.ArtisanID),
	)
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: dto.NewChapter(chapter)}, nil
}

func (s *Server) handleDownloadArchive(ctx context.Context, input *ChapterPathInput) (*huma.StreamResponse, error) {
	archive, err := s.services.Library.ArchiveChapter(ctx, domain.NewID(input.ID), domain.NewID(input.ChapterID))
	if err != nil {
		return nil, err
	}

	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			writeAttachment(ctx, "application/zip", archive.FileName, archive.Data)
		},
	}, nil
}

// writeAttachment writes data as a file download.
func writeAttachment(ctx huma.Context, contentType, fileName string, data []byte) {
	ctx.SetHeader("Content-Type", contentType)
	ctx.SetHeader("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	ctx.SetHeader("Content-Length", strconv.Itoa(len(data)))
	ctx.SetStatus(http.StatusOK)
	_, _ = ctx.BodyWriter().Write(data)
}
