package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	"github.com/fabricaapp/fabrica-server/internal/api/dto"
	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/generation"
	"github.com/fabricaapp/fabrica-server/internal/service"
	"github.com/fabricaapp/fabrica-server/internal/sse"
	"github.com/fabricaapp/fabrica-server/internal/textfmt"
)

// Frames of the commit stream.
const (
	eventSnapshot = "snapshot"
	eventResult   = "result"
	eventError    = "error"
)

func (s *Server) registerGenerationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "planGeneration",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/books/{id}/chapters/{chapterId}/generations",
		Summary:       "Plan generation",
		Description:   "Validates a run and lists the artisans whose content would be overwritten. No generation call is made.",
		Tags:          []string{"Generation"},
		DefaultStatus: http.StatusCreated,
	}, s.handlePlanGeneration)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGeneration",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/generations/{planId}",
		Summary:     "Get generation plan",
		Tags:        []string{"Generation"},
	}, s.handleGetGeneration)

	huma.Register(s.api, huma.Operation{
		OperationID: "commitGeneration",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/generations/{planId}/commit",
		Summary:     "Commit generation",
		Description: "Runs a plan and streams one snapshot event per finished artisan, then a result event. " +
			"A plan with conflicts must be committed with confirmed set, otherwise it is dropped and nothing changes.",
		Tags: []string{"Generation"},
	}, s.handleCommitGeneration)

	huma.Register(s.api, huma.Operation{
		OperationID:   "discardGeneration",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/generations/{planId}",
		Summary:       "Discard generation plan",
		Tags:          []string{"Generation"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDiscardGeneration)
}

// PlanGenerationRequest is the request body for planning a run.
type PlanGenerationRequest struct {
	BaseText   string   `json:"base_text,omitempty" doc:"Text every artisan transforms"`
	Format     string   `json:"format,omitempty" doc:"Markup of base_text: plain (default) or html" validate:"omitempty,oneof=plain html"`
	ArtisanIDs []string `json:"artisan_ids,omitempty" doc:"Artisans to run, in order" validate:"dive,notblank"`
}

// PlanGenerationInput wraps the plan request for huma.
type PlanGenerationInput struct {
	ID        string `path:"id" doc:"Book ID"`
	ChapterID string `path:"chapterId" doc:"Chapter ID"`
	Body      PlanGenerationRequest
}

// PlanOutput wraps a plan response for huma.
type PlanOutput struct {
	Body dto.Plan
}

// PlanPathInput identifies a plan.
type PlanPathInput struct {
	PlanID string `path:"planId" doc:"Plan ID"`
}

// CommitGenerationRequest is the request body for committing a plan.
type CommitGenerationRequest struct {
	Confirmed bool `json:"confirmed,omitempty" doc:"Overwrite existing content of conflicting artisans"`
}

// CommitGenerationInput wraps the commit request for huma.
type CommitGenerationInput struct {
	PlanID string `path:"planId" doc:"Plan ID"`
	Body   CommitGenerationRequest
}

func (s *Server) handlePlanGeneration(ctx context.Context, input *PlanGenerationInput) (*PlanOutput, error) {
	if err := s.validate(input.Body); err != nil {
		return nil, err
	}

	plan, err := s.services.Generation.PlanGeneration(ctx, service.PlanRequest{
		BookID:     domain.NewID(input.ID),
		ChapterID:  domain.NewID(input.ChapterID),
		BaseText:   input.Body.BaseText,
		Format:     textfmt.Format(input.Body.Format),
		ArtisanIDs: dto.ParseIDs(input.Body.ArtisanIDs),
	})
	if err != nil {
		return nil, err
	}
	return &PlanOutput{Body: dto.NewPlan(plan)}, nil
}

func (s *Server) handleGetGeneration(_ context.Context, input *PlanPathInput) (*PlanOutput, error) {
	plan, err := s.services.Generation.GetPlan(input.PlanID)
	if err != nil {
		return nil, err
	}
	return &PlanOutput{Body: dto.NewPlan(plan)}, nil
}

func (s *Server) handleDiscardGeneration(_ context.Context, input *PlanPathInput) (*struct{}, error) {
	if err := s.services.Generation.DiscardPlan(input.PlanID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleCommitGeneration(ctx context.Context, input *CommitGenerationInput) (*huma.StreamResponse, error) {
	plan, err := s.services.Generation.GetPlan(input.PlanID)
	if err != nil {
		return nil, err
	}

	// A declined overwrite is answered before any stream is opened.
	if plan.RequiresConfirmation() && !input.Body.Confirmed {
		_, err := s.services.Generation.CommitGeneration(ctx, plan.ID, false, nil)
		return nil, err
	}

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			_, w := humachi.Unwrap(hctx)
			s.streamCommit(hctx.Context(), w, plan.ID, input.Body.Confirmed)
		},
	}, nil
}

// streamCommit runs a plan and writes its snapshots as SSE frames. The
// stream opens with the first snapshot, so failures before the run starts
// are written as a plain JSON error. Once open, the stream is pinged while
// a generation call is in flight; calls have no time limit by default.
func (s *Server) streamCommit(ctx context.Context, w http.ResponseWriter, planID string, confirmed bool) {
	logger := s.logger.With(slog.String("plan_id", planID))

	var (
		stream  *sse.Stream
		openErr error
		stop    = func() {}
	)
	defer func() {
		stop()
		if stream != nil {
			stream.ClearDeadline()
		}
	}()

	open := func() bool {
		if stream == nil && openErr == nil {
			stream, openErr = sse.NewStream(w, sse.WithWriteTimeout(s.streamWriteTimeout))
			if openErr != nil {
				logger.Error("failed to open generation stream", slog.String("error", openErr.Error()))
				return false
			}
			stop = stream.KeepAlive(s.streamKeepAlive)
		}
		return stream != nil
	}

	result, err := s.services.Generation.CommitGeneration(ctx, planID, confirmed, func(snap generation.Snapshot) {
		if !open() {
			return
		}
		if err := stream.Send(eventSnapshot, dto.NewSnapshot(snap)); err != nil {
			logger.Debug("snapshot not delivered", slog.String("error", err.Error()))
		}
	})

	if stream == nil && openErr == nil && err != nil {
		writeErrorEnvelope(w, err)
		return
	}
	if !open() {
		return
	}

	if err != nil {
		if ctx.Err() == nil {
			logger.Error("generation commit failed", slog.String("error", err.Error()))
		}
		_ = stream.Send(eventError, errorEnvelope(toAPIError(err)))
		return
	}
	_ = stream.Send(eventResult, &Envelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    dto.NewCommitResult(result),
	})
}
