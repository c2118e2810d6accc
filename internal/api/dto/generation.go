package dto

import (
	"time"

	"github.com/fabricaapp/fabrica-server/internal/generation"
	"github.com/fabricaapp/fabrica-server/internal/service"
)

// Plan is a validated generation run waiting for commit.
type Plan struct {
	PlanID               string       `json:"plan_id" doc:"Plan ID to commit or discard"`
	BookID               string       `json:"book_id" doc:"Book ID"`
	ChapterID            string       `json:"chapter_id" doc:"Chapter ID"`
	Artisans             []ArtisanRef `json:"artisans" doc:"Artisans in run order"`
	Conflicts            []ArtisanRef `json:"conflicts" doc:"Selected artisans that already hold content in the chapter"`
	RequiresConfirmation bool         `json:"requires_confirmation" doc:"Whether commit must confirm the overwrite"`
	ExpiresAt            time.Time    `json:"expires_at" doc:"When the plan is dropped if not committed"`
}

// Snapshot is one stream frame of a running generation.
type Snapshot struct {
	Results []Content `json:"results" doc:"Results produced so far, in run order"`
	Total   int       `json:"total" doc:"Number of artisans in the run"`
	Done    bool      `json:"done" doc:"Whether this is the final snapshot"`
}

// CommitResult is the outcome of a committed plan.
type CommitResult struct {
	PlanID  string    `json:"plan_id" doc:"Plan ID"`
	Results []Content `json:"results" doc:"All results of the run"`
	Failed  int       `json:"failed" doc:"Results whose call failed"`
	Saved   bool      `json:"saved" doc:"Whether the results were saved to the chapter"`
	Chapter *Chapter  `json:"chapter,omitempty" doc:"Chapter as saved"`
}

// NewPlan converts a service plan.
func NewPlan(p *service.Plan) Plan {
	return Plan{
		PlanID:               p.ID,
		BookID:               p.BookID.String(),
		ChapterID:            p.ChapterID.String(),
		Artisans:             NewArtisanRefs(p.Artisans),
		Conflicts:            NewArtisanRefs(p.Conflicts),
		RequiresConfirmation: p.RequiresConfirmation(),
		ExpiresAt:            p.ExpiresAt,
	}
}

// NewSnapshot converts an orchestrator snapshot.
func NewSnapshot(s generation.Snapshot) Snapshot {
	return Snapshot{Results: NewContents(s.Results), Total: s.Total, Done: s.Done}
}

// NewCommitResult converts a commit outcome.
func NewCommitResult(r *service.CommitResult) CommitResult {
	out := CommitResult{
		PlanID:  r.PlanID,
		Results: NewContents(r.Results),
		Failed:  r.Failed,
		Saved:   r.Saved,
	}
	if r.Chapter != nil {
		ch := NewChapter(r.Chapter)
		out.Chapter = &ch
	}
	return out
}
