package api

import (
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the value of the "v" field of every JSON response.
const EnvelopeVersion = 1

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps huma response bodies in an Envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *Envelope:
		return body, nil
	case *APIError:
		return errorEnvelope(body), nil
	case huma.StatusError:
		return errorEnvelope(toAPIError(body)), nil
	default:
		return &Envelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}
}

func errorEnvelope(err *APIError) *Envelope {
	env := &Envelope{
		Version: EnvelopeVersion,
		Success: false,
		Error:   err.Message,
		Message: err.Message,
		Code:    err.Code,
	}
	if err.Details != nil {
		env.Details = err.Details
	}
	return env
}

// writeErrorEnvelope writes err as a JSON error envelope outside huma.
func writeErrorEnvelope(w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.GetStatus())
	_ = json.NewEncoder(w).Encode(errorEnvelope(apiErr))
}
