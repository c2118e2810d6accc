// Package generation runs base text through artisans, one generation call
// at a time, and reports each partial result as it arrives.
package generation

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
)

const (
	// PromptSeparator sits between an artisan's prompt and the base text.
	PromptSeparator = "\n\n--- TEXTO A TRANSFORMAR ---\n\n"

	// ErrorMarker prefixes the text of a result whose call failed.
	ErrorMarker = "**ERROR AL GENERAR:** "
)

// Validation messages shown to the user.
const (
	MsgMissingAPIKey = "Por favor, introduce tu clave de API de Gemini."
	MsgEmptyBaseText = "El texto base no puede estar vacío."
	MsgNoneSelected  = "Selecciona al menos un artesano."
)

// TextGenerator performs one text-generation call.
type TextGenerator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// Snapshot is the list of results produced so far. Each snapshot holds one
// more result than the previous one; the final snapshot repeats the full
// list with Done set.
type Snapshot struct {
	Results []domain.GeneratedContent
	Total   int
	Done    bool
}

// Latest returns the most recent result.
func (s Snapshot) Latest() (domain.GeneratedContent, bool) {
	if len(s.Results) == 0 {
		return domain.GeneratedContent{}, false
	}
	return s.Results[len(s.Results)-1], true
}

// Failures counts the results carrying the error marker.
func (s Snapshot) Failures() int {
	n := 0
	for _, r := range s.Results {
		if IsFailure(r) {
			n++
		}
	}
	return n
}

// IsFailure reports whether r records a failed call.
func IsFailure(r domain.GeneratedContent) bool {
	return strings.HasPrefix(r.Text, ErrorMarker)
}

// Orchestrator drives generation runs.
type Orchestrator struct {
	generator TextGenerator
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an Orchestrator.
func New(generator TextGenerator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{generator: generator, logger: logger, now: time.Now}
}

// Validate checks the run preconditions without touching the network. Only
// the base text is trimmed; the key is passed through as given.
func Validate(baseText string, agents []domain.Artisan, apiKey string) error {
	switch {
	case apiKey == "":
		return errors.Validation(MsgMissingAPIKey)
	case strings.TrimSpace(baseText) == "":
		return errors.Validation(MsgEmptyBaseText)
	case len(agents) == 0:
		return errors.Validation(MsgNoneSelected)
	}
	return nil
}

// Generate validates the inputs and returns a lazy sequence of snapshots.
//
// Agents run in the given order; agent N+1 is called only after agent N
// returned. A failed call becomes a result whose text is ErrorMarker plus
// the failure message, and the run continues. If ctx is canceled the
// sequence ends after the interrupted agent without a Done snapshot.
// Breaking out of the range loop stops the run before the next call.
func (o *Orchestrator) Generate(ctx context.Context, baseText string, agents []domain.Artisan, apiKey string) (iter.Seq[Snapshot], error) {
	if err := Validate(baseText, agents, apiKey); err != nil {
		return nil, err
	}

	selected := make([]domain.Artisan, len(agents))
	copy(selected, agents)

	return func(yield func(Snapshot) bool) {
		results := make([]domain.GeneratedContent, 0, len(selected))

		for _, agent := range selected {
			if ctx.Err() != nil {
				o.logger.Info("generation run canceled", "completed", len(results), "total", len(selected))
				return
			}

			results = append(results, o.run(ctx, agent, baseText, apiKey))
			if !yield(snapshotOf(results, len(selected), false)) {
				return
			}
		}

		yield(snapshotOf(results, len(selected), true))
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, agent domain.Artisan, baseText, apiKey string) domain.GeneratedContent {
	text, err := o.generator.Generate(ctx, apiKey, agent.Prompt+PromptSeparator+baseText)
	createdAt := o.now().UTC()
	if err != nil {
		o.logger.Warn("artisan generation failed",
			"artisan_id", agent.ID.String(),
			"artisan", agent.Name,
			"error", err,
		)
		text = ErrorMarker + err.Error()
	}

	return domain.GeneratedContent{
		ArtisanID:   agent.ID,
		ArtisanName: agent.Name,
		Text:        text,
		CreatedAt:   &createdAt,
	}
}

// snapshotOf copies results so later appends never show through.
func snapshotOf(results []domain.GeneratedContent, total int, done bool) Snapshot {
	out := make([]domain.GeneratedContent, len(results))
	copy(out, results)
	return Snapshot{Results: out, Total: total, Done: done}
}
