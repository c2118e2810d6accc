package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
	"github.com/fabricaapp/fabrica-server/internal/generation"
	"github.com/fabricaapp/fabrica-server/internal/sse"
	"github.com/fabricaapp/fabrica-server/internal/store"
	"github.com/fabricaapp/fabrica-server/internal/textfmt"
)

// DefaultPlanTTL is how long an uncommitted plan is kept.
const DefaultPlanTTL = 10 * time.Minute

// MsgOverwriteDeclined is reported when the user declines to overwrite.
const MsgOverwriteDeclined = "Generación cancelada: no se sobrescribió el contenido existente."

// ErrGenerationDeclined is returned by CommitGeneration when a plan with
// conflicts is committed without confirmation.
var ErrGenerationDeclined = errors.ConfirmationRequired(MsgOverwriteDeclined, nil)

// PlanRequest describes a generation run for one chapter.
type PlanRequest struct {
	BookID     domain.ID
	ChapterID  domain.ID
	BaseText   string
	Format     textfmt.Format
	ArtisanIDs []domain.ID
}

// Plan is a validated generation run waiting to be committed.
type Plan struct {
	ID        string
	BookID    domain.ID
	ChapterID domain.ID
	BaseText  string
	Artisans  []domain.Artisan
	// Conflicts are the selected artisans that already hold content in the
	// chapter. Committing overwrites them.
	Conflicts []domain.Artisan
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RequiresConfirmation reports whether committing would overwrite content.
func (p *Plan) RequiresConfirmation() bool {
	return len(p.Conflicts) > 0
}

// CommitResult is the outcome of a committed plan.
type CommitResult struct {
	PlanID  string
	Results []domain.GeneratedContent
	Failed  int
	Saved   bool
	Chapter *domain.Chapter // as saved; nil when nothing was saved
}

// GenerationService runs artisans over a chapter's base text in two
// phases: a plan that validates the inputs and lists overwrite conflicts,
// and a commit that runs the plan and saves the results.
type GenerationService struct {
	store        *store.Store
	orchestrator *generation.Orchestrator
	events       store.EventEmitter
	logger       *slog.Logger
	ttl          time.Duration
	now          func() time.Time

	mu    sync.Mutex
	plans map[string]*Plan
}

// NewGenerationService creates a new generation service. A ttl of zero
// uses DefaultPlanTTL.
func NewGenerationService(store *store.Store, orchestrator *generation.Orchestrator, events store.EventEmitter, ttl time.Duration, logger *slog.Logger) *GenerationService {
	if ttl <= 0 {
		ttl = DefaultPlanTTL
	}
	return &GenerationService{
		store:        store,
		orchestrator: orchestrator,
		events:       events,
		logger:       logger,
		ttl:          ttl,
		now:          time.Now,
		plans:        make(map[string]*Plan),
	}
}

// PlanGeneration validates a run and records it for CommitGeneration. No
// generation call is made.
func (s *GenerationService) PlanGeneration(ctx context.Context, req PlanRequest) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron leer los ajustes.")
	}
	lib, err := s.store.Library(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudo leer la biblioteca.")
	}

	book, ok := domain.FindBook(lib.Books, req.BookID)
	if !ok {
		return nil, errors.NotFoundf("book %s not found", req.BookID)
	}
	chapter, ok := book.Chapter(req.ChapterID)
	if !ok {
		return nil, errors.NotFoundf("chapter %s not found", req.ChapterID)
	}

	artisans, err := resolveArtisans(lib.Artisans, req.ArtisanIDs)
	if err != nil {
		return nil, err
	}

	baseText := textfmt.Normalize(req.BaseText, req.Format)
	if err := generation.Validate(baseText, artisans, settings.APIKey); err != nil {
		return nil, err
	}

	now := s.now()
	plan := &Plan{
		ID:        uuid.NewString(),
		BookID:    req.BookID,
		ChapterID: req.ChapterID,
		BaseText:  baseText,
		Artisans:  artisans,
		Conflicts: domain.ConflictingArtisans(*chapter, artisans),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.plans[plan.ID] = plan
	s.mu.Unlock()

	s.logger.Info("generation planned",
		"plan_id", plan.ID,
		"book_id", req.BookID.String(),
		"chapter_id", req.ChapterID.String(),
		"artisans", len(artisans),
		"conflicts", len(plan.Conflicts),
	)
	out := *plan
	return &out, nil
}

// DiscardPlan drops a plan without running it.
func (s *GenerationService) DiscardPlan(planID string) error {
	if _, err := s.take(planID); err != nil {
		return err
	}
	s.logger.Info("generation plan discarded", "plan_id", planID)
	return nil
}

// CommitGeneration runs a plan. A plan runs at most once.
//
// A plan with conflicts committed without confirmed is dropped and
// ErrGenerationDeclined is returned; nothing is called or written.
// Otherwise observer, if not nil, receives every snapshot as it is
// produced, and once the run completes with at least one result the
// results are merged into the chapter and saved. A run cut short by ctx
// saves nothing and returns the context error with the partial results.
//
// Conflicts are those found when the plan was made. Content written to the
// chapter after that is overwritten without asking: last write wins.
func (s *GenerationService) CommitGeneration(ctx context.Context, planID string, confirmed bool, observer func(generation.Snapshot)) (*CommitResult, error) {
	plan, err := s.take(planID)
	if err != nil {
		return nil, err
	}

	if plan.RequiresConfirmation() && !confirmed {
		s.logger.Info("generation declined", "plan_id", plan.ID, "conflicts", len(plan.Conflicts))
		return nil, ErrGenerationDeclined
	}

	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, storeErr(err, "No se pudieron leer los ajustes.")
	}

	snapshots, err := s.orchestrator.Generate(ctx, plan.BaseText, plan.Artisans, settings.APIKey)
	if err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewGenerationStartedEvent(sse.GenerationStartedEventData{
		PlanID:    plan.ID,
		BookID:    plan.BookID.String(),
		ChapterID: plan.ChapterID.String(),
		Total:     len(plan.Artisans),
	}))

	var last generation.Snapshot
	for snap := range snapshots {
		if observer != nil {
			observer(snap)
		}
		if latest, ok := snap.Latest(); ok && !snap.Done {
			s.events.Emit(sse.NewGenerationProgressEvent(sse.GenerationProgressEventData{
				PlanID:      plan.ID,
				ArtisanID:   latest.ArtisanID.String(),
				ArtisanName: latest.ArtisanName,
				Completed:   len(snap.Results),
				Total:       snap.Total,
				Failed:      generation.IsFailure(latest),
			}))
		}
		last = snap
	}

	result := &CommitResult{
		PlanID:  plan.ID,
		Results: last.Results,
		Failed:  last.Failures(),
	}

	if !last.Done {
		s.emitCompleted(result)
		s.logger.Info("generation interrupted",
			"plan_id", plan.ID,
			"completed", len(last.Results),
			"total", len(plan.Artisans),
		)
		return result, ctx.Err()
	}

	if len(last.Results) > 0 {
		chapter, err := s.save(ctx, plan, last.Results)
		if err != nil {
			s.emitCompleted(result)
			return result, err
		}
		result.Saved = true
		result.Chapter = chapter
	}

	s.emitCompleted(result)
	s.logger.Info("generation completed",
		"plan_id", plan.ID,
		"book_id", plan.BookID.String(),
		"chapter_id", plan.ChapterID.String(),
		"results", len(result.Results),
		"failed", result.Failed,
	)
	return result, nil
}

func (s *GenerationService) emitCompleted(result *CommitResult) {
	s.events.Emit(sse.NewGenerationCompletedEvent(sse.GenerationCompletedEventData{
		PlanID:  result.PlanID,
		Results: len(result.Results),
		Failed:  result.Failed,
		Saved:   result.Saved,
	}))
}

// save merges results into the chapter as it is stored now, so edits made
// during the run to other chapters are kept.
func (s *GenerationService) save(ctx context.Context, plan *Plan, results []domain.GeneratedContent) (*domain.Chapter, error) {
	var saved domain.Chapter
	_, err := s.store.Books.Mutate(ctx, func(books []domain.Book) ([]domain.Book, error) {
		book, ok := domain.FindBook(books, plan.BookID)
		if !ok {
			return nil, errors.NotFoundf("book %s not found", plan.BookID)
		}
		chapter, ok := book.Chapter(plan.ChapterID)
		if !ok {
			return nil, errors.NotFoundf("chapter %s not found", plan.ChapterID)
		}

		saved = domain.MergeContent(*chapter, plan.BaseText, results)
		updated, err := domain.ReplaceChapter(book, saved)
		if err != nil {
			return nil, err
		}
		return domain.ReplaceBook(books, updated)
	})
	if err != nil {
		return nil, storeErr(err, "No se pudo guardar el contenido generado.")
	}
	return &saved, nil
}

// GetPlan returns a copy of a live plan without consuming it.
func (s *GenerationService) GetPlan(planID string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	plan, ok := s.plans[planID]
	if !ok {
		return nil, errors.NotFoundf("generation plan %s not found", planID)
	}
	out := *plan
	return &out, nil
}

// take removes and returns a live plan.
func (s *GenerationService) take(planID string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	plan, ok := s.plans[planID]
	if !ok {
		return nil, errors.NotFoundf("generation plan %s not found", planID)
	}
	delete(s.plans, planID)
	return plan, nil
}

// pruneLocked drops expired plans; callers hold s.mu.
func (s *GenerationService) pruneLocked(now time.Time) {
	for id, p := range s.plans {
		if !now.Before(p.ExpiresAt) {
			delete(s.plans, id)
		}
	}
}

// PendingPlans returns the number of live plans.
func (s *GenerationService) PendingPlans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return len(s.plans)
}

// resolveArtisans maps ids to artisans in the given order. Repeated ids
// are kept once.
func resolveArtisans(all []domain.Artisan, ids []domain.ID) ([]domain.Artisan, error) {
	selected := make([]domain.Artisan, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	var unknown []string

	for _, artisanID := range ids {
		if _, dup := seen[artisanID.String()]; dup {
			continue
		}
		seen[artisanID.String()] = struct{}{}

		a, ok := domain.FindArtisan(all, artisanID)
		if !ok {
			unknown = append(unknown, artisanID.String())
			continue
		}
		selected = append(selected, a)
	}

	if len(unknown) > 0 {
		return nil, errors.ValidationWithDetails("Artesano desconocido.", map[string][]string{"unknown_artisans": unknown})
	}
	return selected, nil
}
