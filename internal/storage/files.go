package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// metadata is the on-disk metadata.json document. It duplicates enough of
// the report row that the file-only variant is self-describing.
type metadata struct {
	ReportID    string                  `json:"report_id"`
	UserEmail   string                  `json:"user_email"`
	Username    string                  `json:"username"`
	Topic       string                  `json:"topic"`
	ReportTitle string                  `json:"report_title"`
	CreatedAt   time.Time               `json:"created_at"`
	Status      domain.ReportStatus     `json:"status"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	Summary     *string                 `json:"summary,omitempty"`
	Sections    []domain.WrittenSection `json:"sections,omitempty"`
}

const dirPerm = 0o755

func writeOutline(h *Handle, outline domain.Outline) error {
	return writePrettyJSON(h.OutlinePath, outline)
}

func writeMetadata(h *Handle, m metadata) error {
	return writePrettyJSON(h.MetadataPath, m)
}

func readMetadata(h *Handle) (metadata, error) {
	var m metadata

	data, err := os.ReadFile(h.MetadataPath)
	if err != nil {
		return m, fmt.Errorf("read %s: %w", h.MetadataPath, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode %s: %w", h.MetadataPath, err)
	}

	return m, nil
}

func writeTranscript(h *Handle, transcript string) error {
	text := domain.TranscriptText(transcript)
	if err := os.WriteFile(h.TranscriptPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", h.TranscriptPath, err)
	}
	return nil
}

// removeDir deletes the report directory and everything in it.
// A missing directory is not an error.
func removeDir(h *Handle) error {
	if err := os.RemoveAll(h.Dir); err != nil {
		return fmt.Errorf("remove %s: %w", h.Dir, err)
	}
	return nil
}

func writePrettyJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
