package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the persisted lifecycle state of a generated report.
// There is no failed status: a failed generation discards the row entirely,
// so callers distinguish failure by absence.
type ReportStatus string

const (
	ReportStatusRunning  ReportStatus = "running"
	ReportStatusComplete ReportStatus = "complete"
)

// Valid reports whether s is a known status value.
func (s ReportStatus) Valid() bool {
	return s == ReportStatusRunning || s == ReportStatusComplete
}

// OutlineSection is one planned section of a report outline.
type OutlineSection struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Outline is the structured plan a report is generated from. It is
// snapshotted at prepare time so the persisted report does not change if
// the outline is edited later.
type Outline struct {
	ReportTitle string           `json:"report_title"`
	Sections    []OutlineSection `json:"sections"`
}

// WrittenSection is one section produced by the generation engine.
type WrittenSection struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// SectionsPayload is the persisted sections column: the outline snapshot
// plus the ordered list of written sections.
type SectionsPayload struct {
	Outline Outline          `json:"outline"`
	Written []WrittenSection `json:"written"`
}

// Report is a persisted report generation record. A running report always
// has a corresponding artifact directory holding at least the outline
// snapshot; a complete report's ContentURI resolves to a transcript file
// relative to the artifact store root.
type Report struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TopicID         uuid.UUID
	Status          ReportStatus
	OutlineSnapshot Outline
	Sections        SectionsPayload
	Summary         *string
	ContentURI      *string
	Deleted         bool
	StartedAt       time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReportListFilter narrows a report listing. Nil fields are unconstrained.
type ReportListFilter struct {
	Status  *ReportStatus
	TopicID *uuid.UUID
}

// TranscriptText normalizes a transcript for storage: surrounding
// whitespace trimmed, exactly one trailing newline.
func TranscriptText(transcript string) string {
	return strings.TrimSpace(transcript) + "\n"
}
