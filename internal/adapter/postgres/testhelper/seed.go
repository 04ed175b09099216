package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with unique email, username and name.
// Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:        uuid.New(),
		Email:     "testuser-" + suffix + "@example.com",
		Username:  "user-" + suffix,
		Name:      "Test User " + suffix,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, username, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Username, user.Name, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedCollection creates an active collection with a unique name for the user.
// Returns a filled domain.Collection.
func SeedCollection(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) domain.Collection {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	description := "Seed collection " + suffix
	c := domain.Collection{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        "Collection " + suffix,
		Description: &description,
		Position:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO collections (id, user_id, name, description, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.Name, c.Description, c.Position, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCollection insert collection: %v", err)
	}

	return c
}

// SeedTopic creates an active saved topic with a unique title and slug.
// collectionID may be nil for an unfiled topic. Returns a filled domain.SavedTopic.
func SeedTopic(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, collectionID *uuid.UUID) domain.SavedTopic {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	topic := domain.SavedTopic{
		ID:           uuid.New(),
		UserID:       userID,
		CollectionID: collectionID,
		Title:        "Topic " + suffix,
		Slug:         "topic-" + suffix,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO saved_topics (id, user_id, collection_id, title, slug, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		topic.ID, topic.UserID, topic.CollectionID, topic.Title, topic.Slug, topic.CreatedAt, topic.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTopic insert saved_topic: %v", err)
	}

	return topic
}

// SeedReport creates a report row in the given status for an existing topic.
// A complete report gets a summary, content URI and completion time.
// Returns a filled domain.Report.
func SeedReport(t *testing.T, pool *pgxpool.Pool, userID, topicID uuid.UUID, status domain.ReportStatus) domain.Report {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	outline := domain.Outline{
		ReportTitle: "Report " + suffix,
		Sections: []domain.OutlineSection{
			{Title: "Introduction", Description: "Opening section"},
			{Title: "Findings"},
		},
	}

	rep := domain.Report{
		ID:              uuid.New(),
		UserID:          userID,
		TopicID:         topicID,
		Status:          status,
		OutlineSnapshot: outline,
		StartedAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if status == domain.ReportStatusComplete {
		summary := "Summary " + suffix
		contentURI := "seed/" + rep.ID.String() + "/report.md"
		completed := now.Add(time.Minute)
		rep.Summary = &summary
		rep.ContentURI = &contentURI
		rep.CompletedAt = &completed
		rep.Sections = domain.SectionsPayload{
			Outline: outline,
			Written: []domain.WrittenSection{
				{Title: "Introduction", Content: "Intro text " + suffix},
				{Title: "Findings", Content: "Findings text " + suffix},
			},
		}
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO reports (id, user_id, topic_id, status, outline_snapshot, sections, summary, content_uri, started_at, completed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rep.ID, rep.UserID, rep.TopicID, rep.Status, rep.OutlineSnapshot, rep.Sections,
		rep.Summary, rep.ContentURI, rep.StartedAt, rep.CompletedAt, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedReport insert report: %v", err)
	}

	return rep
}
