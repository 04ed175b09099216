// Package generator provides section content producers for report runs.
// The real research engine lives outside this service; Echo stands in for
// it wherever a run needs deterministic content.
package generator

import (
	"context"
	"fmt"
	"io"

	"github.com/explorerhq/explorer-backend/internal/domain"
)

// Echo produces one placeholder section per outline entry, then io.EOF.
type Echo struct {
	outline domain.Outline
	pos     int
}

// NewEcho creates an Echo generator over the given outline.
func NewEcho(outline domain.Outline) *Echo {
	return &Echo{outline: outline}
}

// Next returns the next section. The content restates the outline entry so
// downstream consumers always receive non-empty markdown.
func (e *Echo) Next(ctx context.Context) (domain.WrittenSection, error) {
	if err := ctx.Err(); err != nil {
		return domain.WrittenSection{}, err
	}
	if e.pos >= len(e.outline.Sections) {
		return domain.WrittenSection{}, io.EOF
	}

	sec := e.outline.Sections[e.pos]
	e.pos++

	content := sec.Description
	if content == "" {
		content = fmt.Sprintf("This section covers %s.", sec.Title)
	}
	return domain.WrittenSection{Title: sec.Title, Content: content}, nil
}
