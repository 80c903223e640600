package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flowgen/config"
	"flowgen/internal/adapter/render"
	"flowgen/internal/adapter/store"
	"flowgen/internal/domain"
	"flowgen/internal/usecase"
)

var (
	renderForest    string
	renderKey       string
	renderOutput    string
	renderDirection string
	renderBare      bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a forest without re-scanning its source",
	Long: `Render a component forest as a Mermaid flowchart, either from a JSON
forest file or from a forest stored by a previous generate run.

Examples:
  flowgen render --forest forest.json
  flowgen render --key github.com/acme/web -o flow.md`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderForest, "forest", "", "JSON forest file")
	renderCmd.Flags().StringVar(&renderKey, "key", "", "key of a stored forest")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "-", "output file, - for stdout")
	renderCmd.Flags().StringVar(&renderDirection, "direction", "", "flowchart direction: TD, LR, BT, RL (default from config)")
	renderCmd.Flags().BoolVar(&renderBare, "bare", false, "write the diagram without the markdown wrapper")
	renderCmd.MarkFlagsMutuallyExclusive("forest", "key")
	renderCmd.MarkFlagsOneRequired("forest", "key")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	direction := cfg.Render.Direction
	if renderDirection != "" {
		direction = renderDirection
	}
	if !domain.ValidDirection(direction) {
		return &domain.ConfigurationError{Field: "render.direction", Reason: "unknown direction " + direction}
	}
	renderer := render.NewMermaidRenderer(direction)

	var (
		diagram string
		err     error
	)
	if renderForest != "" {
		diagram, err = renderForestFile(renderer, renderForest)
	} else {
		diagram, err = renderStoredForest(renderer, renderKey)
	}
	if err != nil {
		return err
	}

	document := diagram
	if !renderBare {
		document = usecase.FormatDocument(cfg.Render.Heading, diagram)
	}
	return writeOutput(cmd.OutOrStdout(), renderOutput, document)
}

func renderForestFile(renderer *render.MermaidRenderer, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.DataAccessError{Op: "read", Path: path, Err: err}
	}
	var nodes []domain.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return "", fmt.Errorf("invalid forest file %s: %w", path, err)
	}
	return renderer.Render(domain.FromNodes(nodes))
}

func renderStoredForest(renderer *render.MermaidRenderer, key string) (string, error) {
	dbPath := config.ForestDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("no forest store found. Run 'flowgen generate' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open forest store: %w", err)
	}
	defer st.Close()

	return usecase.NewFlowUseCase(st, renderer, logger).RenderStored(key)
}
