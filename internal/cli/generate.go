package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"flowgen/config"
	"flowgen/internal/adapter/fs"
	"flowgen/internal/adapter/github"
	"flowgen/internal/adapter/graph"
	"flowgen/internal/adapter/render"
	"flowgen/internal/adapter/store"
	"flowgen/internal/domain"
	"flowgen/internal/port"
	"flowgen/internal/usecase"
)

var (
	genRemote    bool
	genOwner     string
	genRepo      string
	genRef       string
	genSubpath   string
	genExts      []string
	genOutput    string
	genJSON      bool
	genNoStore   bool
	genKey       string
	genDirection string
)

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Scan a source tree and write its component flowchart",
	Long: `Scan a local directory (default) or a GitHub repository, build the
component import graph and write it as a Mermaid flowchart document.
The forest is stored in .flowgen/forest.db so it can be re-rendered later.

Examples:
  flowgen generate .                                  # Scan current directory
  flowgen generate ./web --ext tsx -o -               # Print diagram to stdout
  flowgen generate --remote --owner acme --repo web --subpath src
  flowgen generate . --json -o forest.json            # Write the forest as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&genRemote, "remote", false, "scan a GitHub repository instead of a local directory")
	generateCmd.Flags().StringVar(&genOwner, "owner", "", "repository owner (default from config)")
	generateCmd.Flags().StringVar(&genRepo, "repo", "", "repository name (default from config)")
	generateCmd.Flags().StringVar(&genRef, "ref", "", "branch, tag or commit (default from config)")
	generateCmd.Flags().StringVar(&genSubpath, "subpath", "", "directory inside the repository to scan (default from config)")
	generateCmd.Flags().StringSliceVar(&genExts, "ext", nil, "file extensions to scan (default from config)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output file, - for stdout (default from config)")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "write the forest as JSON instead of a diagram")
	generateCmd.Flags().BoolVar(&genNoStore, "no-store", false, "do not persist the forest")
	generateCmd.Flags().StringVar(&genKey, "key", "", "key for the stored forest (default: source description)")
	generateCmd.Flags().StringVar(&genDirection, "direction", "", "flowchart direction: TD, LR, BT, RL (default from config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	extensions := cfg.Scan.Extensions
	if len(genExts) > 0 {
		extensions = genExts
	}
	if len(graph.NormalizeExtensions(extensions)) == 0 {
		return &domain.ConfigurationError{Field: "scan.extensions", Reason: "at least one extension is required"}
	}

	direction := cfg.Render.Direction
	if genDirection != "" {
		direction = genDirection
	}
	if !domain.ValidDirection(direction) {
		return &domain.ConfigurationError{Field: "render.direction", Reason: "unknown direction " + direction}
	}

	output := resolveOutput(cfg.Render.Output, genOutput, genJSON)
	status := cmd.OutOrStdout()
	if output == "-" {
		status = cmd.ErrOrStderr()
	}

	var (
		source      port.DataSource
		root        domain.SourceItem
		description string
	)
	if genRemote {
		gh, err := newRemoteSource(cfg)
		if err != nil {
			return err
		}
		source, root, description = gh, gh.Root(), gh.Describe()
	} else {
		path := GetRootDir()
		if len(args) > 0 {
			var err error
			path, err = filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
		}
		local, err := fs.NewSource(path, fs.Options{
			ExcludeDirs:     cfg.Scan.ExcludeDirs,
			ExcludeFiles:    cfg.Scan.ExcludeFiles,
			EagerExtensions: graph.NormalizeExtensions(extensions),
		})
		if err != nil {
			return err
		}
		source, description = local, local.Root()
	}

	var st port.ForestStore
	key := ""
	if cfg.Store.Enabled && !genNoStore {
		bolt, err := openForestStore(status, cfg, GetRootDir())
		if err != nil {
			return err
		}
		defer bolt.Close()
		st = bolt
		key = description
		if genKey != "" {
			key = genKey
		}
	}

	fmt.Fprintf(status, "Scanning %s...\n", description)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Scanning[reset]"),
		progressbar.OptionClearOnFinish(),
	)

	uc := usecase.NewFlowUseCase(st, render.NewMermaidRenderer(direction), logger)
	start := time.Now()
	result, err := uc.Generate(cmd.Context(), usecase.GenerateRequest{
		Source:      source,
		Root:        root,
		Extensions:  extensions,
		BasePath:    cfg.Scan.BasePath,
		Key:         key,
		Description: description,
		Progress: func(processed int, currentFile string) {
			bar.Describe(fmt.Sprintf("[cyan]Scanning[reset] %s", currentFile))
			bar.Set(processed)
		},
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	var document string
	if genJSON {
		data, err := json.MarshalIndent(domain.ToNodes(result.Forest.Components), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode forest: %w", err)
		}
		document = string(data) + "\n"
	} else {
		document = usecase.FormatDocument(cfg.Render.Heading, result.Diagram)
	}
	if err := writeOutput(cmd.OutOrStdout(), output, document); err != nil {
		return err
	}

	printSummary(status, result, time.Since(start))
	if output != "-" {
		fmt.Fprintf(status, "\nFlowchart written to: %s\n", output)
	}
	if key != "" {
		fmt.Fprintf(status, "Forest stored as: %s\n", key)
	}
	return nil
}

func newRemoteSource(cfg *config.Config) (*github.Source, error) {
	remote := cfg.Remote
	if genOwner != "" {
		remote.Owner = genOwner
	}
	if genRepo != "" {
		remote.Repo = genRepo
	}
	if genRef != "" {
		remote.Ref = genRef
	}
	if genSubpath != "" {
		remote.Path = genSubpath
	}

	var token string
	if remote.TokenEnv != "" {
		token = os.Getenv(remote.TokenEnv)
	}

	return github.NewSource(github.Options{
		Owner:        remote.Owner,
		Repo:         remote.Repo,
		Ref:          remote.Ref,
		Path:         remote.Path,
		Token:        token,
		BaseURL:      remote.BaseURL,
		Timeout:      time.Duration(remote.TimeoutSeconds) * time.Second,
		CacheSize:    remote.CacheSize,
		ExcludeDirs:  cfg.Scan.ExcludeDirs,
		ExcludeFiles: cfg.Scan.ExcludeFiles,
	})
}

// openForestStore opens the forest database under dir and brings its schema
// up to date, clearing stored forests when the scan configuration changed.
func openForestStore(w io.Writer, cfg *config.Config, dir string) (*store.BoltStore, error) {
	if err := config.EnsureFlowDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create .flowgen directory: %w", err)
	}

	st, err := store.NewBoltStore(config.ForestDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open forest store: %w", err)
	}

	migration, err := st.CheckMigration(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check migration: %w", err)
	}

	if migration.NeedsRebuild {
		fmt.Fprintf(w, "Forest store reset required: %s\n", migration.Reason)
		if err := st.Clear(); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to clear forest store: %w", err)
		}
	}
	if migration.NeedsRebuild || migration.NeedsMigration {
		if err := st.Migrate(cfg); err != nil {
			st.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	return st, nil
}

// resolveOutput picks the output path. A JSON forest written to the default
// document path gets a .json extension instead.
func resolveOutput(configured, flag string, asJSON bool) string {
	if flag != "" {
		return flag
	}
	if asJSON && configured != "-" {
		return strings.TrimSuffix(configured, filepath.Ext(configured)) + ".json"
	}
	return configured
}

func writeOutput(stdout io.Writer, output, document string) error {
	if output == "-" {
		_, err := io.WriteString(stdout, document)
		return err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, []byte(document), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, result *usecase.FlowResult, elapsed time.Duration) {
	forest := result.Forest

	fmt.Fprintf(w, "\nGeneration complete:\n")
	fmt.Fprintf(w, "  Components:     %d\n", len(forest.Components))
	fmt.Fprintf(w, "  Roots:          %d\n", len(forest.Roots))
	fmt.Fprintf(w, "  Edges:          %d\n", len(forest.Edges()))
	fmt.Fprintf(w, "  Elapsed:        %s\n", formatDuration(elapsed))

	if len(forest.Skipped) > 0 {
		warn := color.New(color.FgYellow)
		warn.Fprintf(w, "\nSkipped %d unreadable file(s):\n", len(forest.Skipped))
		for _, p := range forest.Skipped {
			warn.Fprintf(w, "  - %s\n", p)
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
