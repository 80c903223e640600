package port

import (
	"time"

	"flowgen/internal/domain"
)

// ForestRecord is a persisted graph build.
type ForestRecord struct {
	Key        string        `json:"key"`
	Source     string        `json:"source"`
	Extensions []string      `json:"extensions"`
	CreatedAt  time.Time     `json:"created_at"`
	Nodes      []domain.Node `json:"nodes"`
}

type ForestStore interface {
	PutForest(rec ForestRecord) error

	GetForest(key string) (ForestRecord, error)

	ListForests() ([]ForestRecord, error)

	DeleteForest(key string) error

	Close() error
}
