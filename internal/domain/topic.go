package domain

import (
	"time"

	"github.com/google/uuid"
)

// SavedTopic is a topic a user saved or generated a report for.
// Title is unique per owner across deleted and active rows (re-saving a
// deleted title reactivates the same row); the slug is unique globally,
// so a title collision between two owners forces a slug suffix.
type SavedTopic struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CollectionID *uuid.UUID
	Title        string
	Slug         string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
