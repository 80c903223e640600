package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flowgen/internal/adapter/graph"
	"flowgen/internal/adapter/render"
	"flowgen/internal/domain"
	"flowgen/internal/port"
)

// FlowUseCase builds component graphs and renders them as flowcharts.
type FlowUseCase struct {
	store    port.ForestStore
	renderer *render.MermaidRenderer
	logger   *slog.Logger
}

// NewFlowUseCase creates a new flow use case. store may be nil, in which case
// forests are never persisted.
func NewFlowUseCase(store port.ForestStore, renderer *render.MermaidRenderer, logger *slog.Logger) *FlowUseCase {
	if renderer == nil {
		renderer = render.NewMermaidRenderer("TD")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowUseCase{
		store:    store,
		renderer: renderer,
		logger:   logger,
	}
}

// GenerateRequest describes one generate-flow invocation.
type GenerateRequest struct {
	Source port.DataSource

	// Roots are the items the walk starts from. When empty, Root is listed
	// through Source to obtain them.
	Roots []domain.SourceItem
	Root  domain.SourceItem

	Extensions []string
	BasePath   string

	// Key names the stored forest. Empty skips persistence.
	Key         string
	Description string

	Progress graph.ProgressFunc
}

// FlowResult contains the results of a generate-flow operation.
type FlowResult struct {
	Forest  *domain.Forest
	Diagram string
}

// Generate lists the roots, builds the forest, renders it and, when a key
// is given, stores the forest for later re-rendering.
func (u *FlowUseCase) Generate(ctx context.Context, req GenerateRequest) (*FlowResult, error) {
	roots := req.Roots
	if len(roots) == 0 {
		var err error
		roots, err = req.Source.ListChildren(ctx, req.Root)
		if err != nil {
			return nil, err
		}
	}

	builder := graph.NewBuilder(req.Source, req.Extensions,
		graph.WithLogger(u.logger),
		graph.WithProgress(req.Progress))

	forest, err := builder.Build(ctx, roots, req.BasePath)
	if err != nil {
		return nil, err
	}

	diagram, err := u.renderer.Render(forest.Components)
	if err != nil {
		return nil, err
	}

	if req.Key != "" && u.store != nil {
		rec := port.ForestRecord{
			Key:        req.Key,
			Source:     req.Description,
			Extensions: graph.NormalizeExtensions(req.Extensions),
			CreatedAt:  time.Now().UTC(),
			Nodes:      domain.ToNodes(forest.Components),
		}
		if err := u.store.PutForest(rec); err != nil {
			return nil, fmt.Errorf("failed to store forest: %w", err)
		}
		u.logger.Debug("forest stored", "key", req.Key, "components", len(forest.Components))
	}

	return &FlowResult{Forest: forest, Diagram: diagram}, nil
}

// Render renders components that are already in memory.
func (u *FlowUseCase) Render(components []*domain.Component) (string, error) {
	return u.renderer.Render(components)
}

// RenderStored re-renders a stored forest without re-scanning its source.
func (u *FlowUseCase) RenderStored(key string) (string, error) {
	if u.store == nil {
		return "", fmt.Errorf("no forest store configured")
	}
	rec, err := u.store.GetForest(key)
	if err != nil {
		return "", err
	}
	return u.renderer.Render(domain.FromNodes(rec.Nodes))
}

// GenerateFlow builds and renders the component graph reachable from roots.
func GenerateFlow(ctx context.Context, roots []domain.SourceItem, source port.DataSource, extensions []string) (string, error) {
	res, err := NewFlowUseCase(nil, nil, nil).Generate(ctx, GenerateRequest{
		Source:     source,
		Roots:      roots,
		Extensions: extensions,
	})
	if err != nil {
		return "", err
	}
	return res.Diagram, nil
}

// RenderDiagram renders a forest the caller already holds.
func RenderDiagram(components []*domain.Component) (string, error) {
	return render.RenderDiagram(components)
}
