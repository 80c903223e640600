package port

import (
	"context"

	"flowgen/internal/domain"
)

// DataSource lists and reads the items a component graph is built from.
type DataSource interface {
	// ListChildren returns the immediate children of dir, already filtered
	// by the source's exclusion policy. The zero SourceItem lists the root.
	ListChildren(ctx context.Context, dir domain.SourceItem) ([]domain.SourceItem, error)

	// ReadFile returns the full text content of one file item.
	ReadFile(ctx context.Context, file domain.SourceItem) (string, error)
}
