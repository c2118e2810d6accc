package api

import "github.com/fabricaapp/fabrica-server/internal/service"

// Services groups all business logic services used by the API server.
type Services struct {
	Book       *service.BookService
	Artisan    *service.ArtisanService
	Collection *service.CollectionService
	Settings   *service.SettingsService
	Generation *service.GenerationService
	Library    *service.LibraryService
	Search     *service.SearchService // nil disables search
}
