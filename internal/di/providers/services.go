package providers

import (
	"github.com/samber/do/v2"

	"github.com/fabricaapp/fabrica-server/internal/backup"
	"github.com/fabricaapp/fabrica-server/internal/config"
	"github.com/fabricaapp/fabrica-server/internal/generation"
	"github.com/fabricaapp/fabrica-server/internal/generation/gemini"
	"github.com/fabricaapp/fabrica-server/internal/logger"
	"github.com/fabricaapp/fabrica-server/internal/service"
)

// GeminiClientHandle wraps the generation client with Shutdownable.
type GeminiClientHandle struct {
	*gemini.Client
}

// Shutdown implements do.Shutdownable.
func (h *GeminiClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideGeminiClient provides the rate-limited text-generation client.
func ProvideGeminiClient(i do.Injector) (*GeminiClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := gemini.New(gemini.Config{
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Timeout: cfg.Generation.Timeout,
		RPS:     cfg.Generation.RPS,
		Burst:   cfg.Generation.Burst,
	}, log.Logger)

	log.Info("Generation client ready",
		"model", cfg.Generation.Model,
		"rps", cfg.Generation.RPS,
		"burst", cfg.Generation.Burst,
	)

	return &GeminiClientHandle{Client: client}, nil
}

// ProvideOrchestrator provides the generation orchestrator.
func ProvideOrchestrator(i do.Injector) (*generation.Orchestrator, error) {
	clientHandle := do.MustInvoke[*GeminiClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return generation.New(clientHandle.Client, log.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, log.Logger), nil
}

// ProvideArtisanService provides the artisan service.
func ProvideArtisanService(i do.Injector) (*service.ArtisanService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewArtisanService(storeHandle.Store, log.Logger), nil
}

// ProvideCollectionService provides the collection service.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCollectionService(storeHandle.Store, log.Logger), nil
}

// ProvideSettingsService provides the settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(storeHandle.Store, log.Logger), nil
}

// ProvideGenerationService provides the two-phase generation service.
func ProvideGenerationService(i do.Injector) (*service.GenerationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	orchestrator := do.MustInvoke[*generation.Orchestrator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGenerationService(
		storeHandle.Store,
		orchestrator,
		sseHandle.Manager,
		cfg.Generation.PlanTTL,
		log.Logger,
	), nil
}

// ProvideLibraryService provides import, export, archives and backups.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	backups := do.MustInvoke[*backup.Manager](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, backups, log.Logger), nil
}
