package utils

import (
	"strings"

	"github.com/google/uuid"
)

// IsUUID reports whether s is a canonical UUID string.
func IsUUID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
