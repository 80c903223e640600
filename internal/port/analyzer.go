package port

import "flowgen/internal/domain"

// ImportRef is one import statement found in a file.
type ImportRef struct {
	Symbol string
	Path   string
}

type ImportExtractor interface {
	Extract(content string) []ImportRef
}

type Classifier interface {
	Classify(componentPath string) domain.Role
}
