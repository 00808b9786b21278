package storage

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidID = errors.New("invalid record id")

// validateID rejects ids that would escape a backend's namespace.
func validateID(id string) error {
	if id == "" || strings.HasPrefix(id, ".") || strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
