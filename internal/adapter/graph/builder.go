package graph

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"flowgen/internal/adapter/analyzer"
	"flowgen/internal/domain"
	"flowgen/internal/port"
)

// ProgressFunc is called after each file matching the extension filter has
// been handled, whether it was read or skipped.
type ProgressFunc func(processed int, currentFile string)

// Builder walks a data source and builds the component graph.
type Builder struct {
	source     port.DataSource
	extractor  port.ImportExtractor
	classifier port.Classifier
	extensions []string
	logger     *slog.Logger
	progress   ProgressFunc
}

type Option func(*Builder)

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) { b.progress = fn }
}

func WithExtractor(e port.ImportExtractor) Option {
	return func(b *Builder) { b.extractor = e }
}

func WithClassifier(c port.Classifier) Option {
	return func(b *Builder) { b.classifier = c }
}

// NewBuilder creates a builder that keeps files whose names end with one of
// extensions. Extensions may be given with or without the leading dot.
func NewBuilder(source port.DataSource, extensions []string, opts ...Option) *Builder {
	b := &Builder{
		source:     source,
		extractor:  analyzer.NewImportExtractor(),
		classifier: analyzer.NewClassifier(),
		extensions: NormalizeExtensions(extensions),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs one graph build over roots using default collaborators.
func Build(ctx context.Context, roots []domain.SourceItem, source port.DataSource, extensions []string, basePath string) (*domain.Forest, error) {
	return NewBuilder(source, extensions).Build(ctx, roots, basePath)
}

// buildRun holds the state of one Build call.
type buildRun struct {
	components map[string]*domain.Component
	keys       []string
	skipped    []string
	processed  int
}

// Build walks roots depth-first, creating one component per matching file,
// then links every importer as a child of the components it imports.
// A directory that cannot be listed aborts the build; a file that cannot be
// read is logged and skipped.
func (b *Builder) Build(ctx context.Context, roots []domain.SourceItem, basePath string) (*domain.Forest, error) {
	run := &buildRun{components: make(map[string]*domain.Component)}

	if err := b.walk(ctx, run, roots, basePath); err != nil {
		return nil, err
	}

	forest := &domain.Forest{
		Components: make([]*domain.Component, 0, len(run.keys)),
		Skipped:    run.skipped,
	}
	for _, key := range run.keys {
		comp := run.components[key]
		forest.Components = append(forest.Components, comp)

		if len(comp.ImportTargets) == 0 {
			forest.Roots = append(forest.Roots, comp)
		}
		for _, target := range comp.ImportTargets {
			if target == key {
				continue
			}
			if imported, ok := run.components[target]; ok {
				imported.AddChild(comp)
			}
		}
	}

	b.logger.Debug("component graph built",
		"components", len(forest.Components),
		"roots", len(forest.Roots),
		"skipped", len(forest.Skipped))

	return forest, nil
}

func (b *Builder) walk(ctx context.Context, run *buildRun, items []domain.SourceItem, dir string) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if item.IsDir() {
			children, err := b.source.ListChildren(ctx, item)
			if err != nil {
				return listError(item, err)
			}
			if err := b.walk(ctx, run, children, path.Join(dir, item.Name)); err != nil {
				return err
			}
			continue
		}

		if !b.matches(item.Name) {
			continue
		}
		b.addFile(ctx, run, item, dir)
		run.processed++
		if b.progress != nil {
			b.progress(run.processed, item.Path)
		}
	}
	return nil
}

func (b *Builder) addFile(ctx context.Context, run *buildRun, item domain.SourceItem, dir string) {
	var content string
	if item.Content != nil {
		content = *item.Content
	} else {
		var err error
		content, err = b.source.ReadFile(ctx, item)
		if err != nil {
			b.logger.Warn("skipping unreadable file", "path", item.Path, "err", err)
			run.skipped = append(run.skipped, item.Path)
			return
		}
	}

	name := firstSegment(item.Name)
	key := path.Join(dir, name)

	comp := &domain.Component{
		Name:          name,
		Role:          b.classifier.Classify(key),
		FilePath:      item.Path,
		ImportTargets: []string{},
	}

	for _, ref := range b.extractor.Extract(content) {
		target := path.Join(dir, path.Dir(ref.Path), analyzer.StripBraces(ref.Symbol))
		comp.ImportTargets = append(comp.ImportTargets, target)
	}

	if prev, exists := run.components[key]; exists {
		// Last write wins.
		b.logger.Debug("component path overwritten", "key", key, "previous", prev.FilePath, "current", item.Path)
	} else {
		run.keys = append(run.keys, key)
	}
	run.components[key] = comp
}

func (b *Builder) matches(name string) bool {
	for _, ext := range b.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// NormalizeExtensions trims blanks and ensures every extension has a leading
// dot. Case is preserved.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func firstSegment(name string) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}

func listError(item domain.SourceItem, err error) error {
	var dae *domain.DataAccessError
	if errors.As(err, &dae) {
		return err
	}
	return &domain.DataAccessError{Op: "list", Path: item.Path, Err: err}
}
