// Package backup reads and writes the library interchange document, builds
// chapter archives and keeps timestamped backups on disk.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/errors"
)

// Messages returned for unusable import documents.
const (
	MsgInvalidImport    = "Archivo de importación no válido."
	MsgUnreadableImport = "Error al leer el archivo de importación."
)

// Encode writes lib as the 2-space indented interchange document
// {"libros": [...], "artesanos": [...], "colecciones": [...]}. Encoding the
// result of Decode reproduces the encoded bytes exactly.
func Encode(w io.Writer, lib *domain.Library) error {
	doc := *lib
	doc.Normalize()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	return nil
}

// Marshal returns the encoded interchange document.
func Marshal(lib *domain.Library) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, lib); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses an interchange document. "libros" and "artesanos" must be
// present; a missing "colecciones" reads as an empty list.
func Decode(data []byte) (*domain.Library, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, MsgUnreadableImport)
	}
	for _, required := range []string{"libros", "artesanos"} {
		raw, ok := keys[required]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, errors.ValidationWithDetails(MsgInvalidImport, map[string]string{"missing": required})
		}
	}

	var lib domain.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, MsgUnreadableImport)
	}
	lib.Normalize()
	return &lib, nil
}

// ExportFileName is the download name of an export made at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("biblioteca_fabrica_contenido_%s.json", t.Format(time.DateOnly))
}
