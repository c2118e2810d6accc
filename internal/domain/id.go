package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies a library entity.
//
// Fresh entities get prefixed NanoIDs. Libraries exported by earlier
// versions of the app carry numeric ids (millisecond timestamps, sometimes
// with a fractional part); those keep their exact numeric literal so an
// export reproduces them unchanged. Compare ids with Equal.
type ID struct {
	value   string
	numeric bool
}

// NewID returns a string id.
func NewID(s string) ID {
	return ID{value: s}
}

// String returns the id as used in URLs and store lookups.
func (i ID) String() string {
	return i.value
}

// IsZero reports whether the id is empty.
func (i ID) IsZero() bool {
	return i.value == ""
}

// Equal compares two ids by their textual form, so the numeric id 3 and the
// string id "3" are the same entity.
func (i ID) Equal(other ID) bool {
	return i.value == other.value
}

// MarshalJSON writes numeric ids as numbers and everything else as strings.
func (i ID) MarshalJSON() ([]byte, error) {
	if i.numeric {
		return []byte(i.value), nil
	}
	return json.Marshal(i.value)
}

// UnmarshalJSON accepts a JSON string or a JSON number.
func (i *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty id")
	}
	if string(data) == "null" {
		*i = ID{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ID{value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*i = ID{value: n.String(), numeric: true}
	return nil
}
