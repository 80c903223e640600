package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowgen/internal/adapter/fs"
	"flowgen/internal/adapter/render"
	"flowgen/internal/adapter/store"
	"flowgen/internal/domain"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return root
}

func homeButtonProject(t *testing.T) *fs.Source {
	root := writeProject(t, map[string]string{
		"pages/Home.tsx":        "import Button from '../components/Button'\n",
		"components/Button.tsx": "export default function Button() { return null }\n",
		"components/Button.css": ".btn {}\n",
	})
	src, err := fs.NewSource(root, fs.Options{})
	require.NoError(t, err)
	return src
}

func find(f *domain.Forest, name string) *domain.Component {
	for _, c := range f.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGenerate_HomeImportsButton(t *testing.T) {
	src := homeButtonProject(t)
	uc := NewFlowUseCase(nil, nil, nil)

	res, err := uc.Generate(context.Background(), GenerateRequest{Source: src, Extensions: []string{"tsx"}})
	require.NoError(t, err)

	home := find(res.Forest, "Home")
	button := find(res.Forest, "Button")
	require.NotNil(t, home)
	require.NotNil(t, button)

	// Home is a child of Button, not the other way round.
	assert.Equal(t, []*domain.Component{home}, button.Children)
	assert.Empty(t, home.Children)
	assert.Equal(t, []*domain.Component{button}, res.Forest.Roots)

	assert.Contains(t, res.Diagram, "Button -->|relates to| Home")
	assert.NotContains(t, res.Diagram, "|uses|")
	assert.Equal(t, 1, strings.Count(res.Diagram, "-->"))

	lines := strings.Split(res.Diagram, "\n")
	assert.Equal(t, "flowchart TD", lines[0])
	assert.Equal(t, `  Button(["Button (component)"])`, lines[1], "Button is a display root")
}

func TestGenerate_StoresAndRerenders(t *testing.T) {
	src := homeButtonProject(t)
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "forest.db"))
	require.NoError(t, err)
	defer st.Close()

	uc := NewFlowUseCase(st, render.NewMermaidRenderer("LR"), nil)
	res, err := uc.Generate(context.Background(), GenerateRequest{
		Source:      src,
		Extensions:  []string{".tsx"},
		Key:         "local",
		Description: src.Root(),
	})
	require.NoError(t, err)

	rec, err := st.GetForest("local")
	require.NoError(t, err)
	assert.Equal(t, src.Root(), rec.Source)
	assert.Equal(t, []string{".tsx"}, rec.Extensions)
	assert.Len(t, rec.Nodes, 2)

	again, err := uc.RenderStored("local")
	require.NoError(t, err)
	assert.Equal(t, res.Diagram, again)
}

func TestGenerate_EmptyTreeFailsValidation(t *testing.T) {
	root := writeProject(t, map[string]string{"README.md": "nothing here"})
	src, err := fs.NewSource(root, fs.Options{})
	require.NoError(t, err)

	_, err = NewFlowUseCase(nil, nil, nil).Generate(context.Background(), GenerateRequest{Source: src, Extensions: []string{"tsx"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGenerateFlow(t *testing.T) {
	src := homeButtonProject(t)
	roots, err := src.ListChildren(context.Background(), domain.SourceItem{})
	require.NoError(t, err)

	diagram, err := GenerateFlow(context.Background(), roots, src, []string{"tsx"})
	require.NoError(t, err)
	assert.Contains(t, diagram, `Home["Home (page)"]`)
}

func TestGenerate_ListingFailurePropagates(t *testing.T) {
	src := homeButtonProject(t)
	roots := []domain.SourceItem{{Name: "ghost", Path: "ghost", Kind: domain.KindDirectory}}

	_, err := GenerateFlow(context.Background(), roots, src, []string{"tsx"})
	var dae *domain.DataAccessError
	require.True(t, errors.As(err, &dae))
	assert.Equal(t, "ghost", dae.Path)
}

func TestRenderDiagram_RoundTripThroughJSONForm(t *testing.T) {
	layout := &domain.Component{Name: "Shell", Role: domain.RoleLayout, ImportTargets: []string{}}
	page := &domain.Component{Name: "Orders", Role: domain.RolePage, ImportTargets: []string{"Shell"}}
	layout.AddChild(page)
	forest := []*domain.Component{layout, page}

	direct, err := RenderDiagram(forest)
	require.NoError(t, err)
	rebuilt, err := RenderDiagram(domain.FromNodes(domain.ToNodes(forest)))
	require.NoError(t, err)
	assert.Equal(t, direct, rebuilt)
	assert.Contains(t, direct, "Shell -->|contains| Orders")
}

func TestRenderStored_WithoutStore(t *testing.T) {
	_, err := NewFlowUseCase(nil, nil, nil).RenderStored("x")
	assert.Error(t, err)
}
