// Package storage owns report artifact persistence: the on-disk directory
// tree of outlines, transcripts and metadata, and the lifecycle that keeps
// it consistent with the relational report rows.
package storage

import (
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// Artifact file names inside one report directory.
const (
	OutlineFile    = "outline.json"
	MetadataFile   = "metadata.json"
	TranscriptFile = "report.md"
)

// DefaultOwnerKey is the directory segment used when a request carries no
// email to derive one from.
const DefaultOwnerKey = "default"

// Handle correlates one report's identity with its filesystem paths.
// It is never persisted; it is recomputed from directory conventions and
// lives only for the duration of one generation request.
type Handle struct {
	ReportID       uuid.UUID
	OwnerKey       string
	Dir            string
	OutlinePath    string
	MetadataPath   string
	TranscriptPath string
}

// NewHandle builds the paths for a report under <base>/<ownerKey>/<reportID>/.
func NewHandle(baseDir, ownerKey string, reportID uuid.UUID) *Handle {
	dir := filepath.Join(baseDir, ownerKey, reportID.String())
	return &Handle{
		ReportID:       reportID,
		OwnerKey:       ownerKey,
		Dir:            dir,
		OutlinePath:    filepath.Join(dir, OutlineFile),
		MetadataPath:   filepath.Join(dir, MetadataFile),
		TranscriptPath: filepath.Join(dir, TranscriptFile),
	}
}

// ContentURI returns the transcript location relative to the store base,
// with forward slashes regardless of platform. This is what gets persisted
// in the report row.
func (h *Handle) ContentURI() string {
	return path.Join(h.OwnerKey, h.ReportID.String(), TranscriptFile)
}
