package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a user-defined folder grouping saved topics.
// Name uniqueness is enforced per owner among non-deleted rows only;
// deleting a collection reassigns its topics to "uncategorized" (nil
// collection reference) rather than deleting them.
type Collection struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description *string
	Color       *string
	Icon        *string
	Position    int
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TopicCount  int // computed field, not stored in DB
}

// CollectionUpdateParams carries optional field updates for a collection.
// Nil means "leave unchanged".
type CollectionUpdateParams struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
	Position    *int
}
