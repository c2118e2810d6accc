package gemini

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a 2xx body carries no text at
// candidates[0].content.parts[0].text.
var ErrMalformedResponse = errors.New("respuesta inesperada de la API: falta candidates[0].content.parts[0].text")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Error de API: %s", e.Message)
}
