package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
	"github.com/fabricaapp/fabrica-server/internal/domain"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books",
		Summary:     "List books",
		Description: "Returns every book with its progress",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books",
		Summary:       "Create book",
		Description:   "Creates a book from a title and an index, one chapter title per line",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its chapters and content",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/books/{id}",
		Summary:       "Delete book",
		Description:   "Deletes a book and all its chapters",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignBookCollection",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/books/{id}/collection",
		Summary:     "Assign collection",
		Description: "Moves a book into a collection. A null collection_id ungroups it.",
		Tags:        []string{"Books"},
	}, s.handleAssignCollection)
}

// BookPathInput identifies a book.
type BookPathInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// ListBooksOutput wraps the book list for huma.
type ListBooksOutput struct {
	Body []dto.BookSummary
}

// BookOutput wraps a book response for huma.
type BookOutput struct {
	Body dto.Book
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	Title    string `json:"title,omitempty" doc:"Book title"`
	Chapters string `json:"chapters,omitempty" doc:"Chapter titles, one per line; blank lines are ignored"`
}

// CreateBookInput wraps the create book request for huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// AssignCollectionRequest is the request body for assigning a collection.
type AssignCollectionRequest struct {
	CollectionID *string `json:"collection_id,omitempty" nullable:"true" doc:"Collection ID, null or absent to ungroup" validate:"omitempty,notblank"`
}

// AssignCollectionInput wraps the assign collection request for huma.
type AssignCollectionInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body AssignCollectionRequest
}

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Book.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	return &ListBooksOutput{Body: dto.NewBookSummaries(books)}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	book, err := s.services.Book.CreateBook(ctx, input.Body.Title, input.Body.Chapters)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: dto.NewBook(book)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookPathInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, domain.NewID(input.ID))
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: dto.NewBook(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookPathInput) (*struct{}, error) {
	if err := s.services.Book.DeleteBook(ctx, domain.NewID(input.ID)); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAssignCollection(ctx context.Context, input *AssignCollectionInput) (*BookOutput, error) {
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	var collectionID *domain.ID
	if input.Body.CollectionID != nil {
		id := domain.NewID(*input.Body.CollectionID)
		collectionID = &id
	}

	book, err := s.services.Book.AssignCollection(ctx, domain.NewID(input.ID), collectionID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: dto.NewBook(book)}, nil
}
