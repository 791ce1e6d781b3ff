package utils

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// NewRunID returns a random identifier for one streaming run.
func NewRunID() string {
	return uuid.NewString()
}

// DecodeJSON decodes JSON from r into dest and rejects unknown fields.
func DecodeJSON(r io.Reader, dest interface{}) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
