package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a report owner, created lazily on first reference.
type User struct {
	ID        uuid.UUID
	Email     string
	Username  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPlaceholderName reports whether value is one of the sentinel display
// names that later real user input is allowed to overwrite.
func IsPlaceholderName(value string, placeholders []string) bool {
	for _, p := range placeholders {
		if value == p {
			return true
		}
	}
	return false
}
