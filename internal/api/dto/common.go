// Package dto provides request and response types for the Fabrica API.
// These types are used by huma to generate OpenAPI documentation and perform validation.
package dto

import "github.com/fabricaapp/fabrica-server/internal/domain"

// MessageResponse is a simple success message response.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps a message response for huma.
type MessageOutput struct {
	Body MessageResponse
}

// ParseIDs converts path or body ids to domain ids, keeping their order.
func ParseIDs(ids []string) []domain.ID {
	out := make([]domain.ID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.NewID(id))
	}
	return out
}

func optionalString(id *domain.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
