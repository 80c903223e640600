package fs

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"flowgen/internal/domain"
)

// Options configures a local Source.
type Options struct {
	// ExcludeDirs and ExcludeFiles are doublestar patterns matched against
	// root-relative slash paths.
	ExcludeDirs  []string
	ExcludeFiles []string

	// EagerExtensions limits eager content loading to files with one of
	// these suffixes. Empty loads every file.
	EagerExtensions []string
}

// Source is a local directory tree. File content is loaded while listing.
type Source struct {
	root string
	opts Options
}

func NewSource(root string, opts Options) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &domain.DataAccessError{Op: "list", Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &domain.ConfigurationError{Field: "root", Reason: abs + " is not a directory"}
	}
	return &Source{root: abs, opts: opts}, nil
}

func (s *Source) Root() string {
	return s.root
}

// ListChildren lists one directory in lexical order. The zero item lists the
// root.
func (s *Source) ListChildren(ctx context.Context, dir domain.SourceItem) ([]domain.SourceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.abs(dir.Path))
	if err != nil {
		return nil, &domain.DataAccessError{Op: "list", Path: dir.Path, Err: err}
	}

	items := make([]domain.SourceItem, 0, len(entries))
	for _, entry := range entries {
		relPath := path.Join(dir.Path, entry.Name())

		if entry.IsDir() {
			if s.shouldExclude(s.opts.ExcludeDirs, relPath) {
				continue
			}
			items = append(items, domain.SourceItem{
				Name: entry.Name(),
				Path: relPath,
				Kind: domain.KindDirectory,
			})
			continue
		}

		if !entry.Type().IsRegular() || s.shouldExclude(s.opts.ExcludeFiles, relPath) {
			continue
		}

		item := domain.SourceItem{
			Name:        entry.Name(),
			Path:        relPath,
			Kind:        domain.KindFile,
			DownloadRef: relPath,
		}
		if s.eager(entry.Name()) {
			// On failure Content stays nil and ReadFile reports the error.
			if data, err := os.ReadFile(s.abs(relPath)); err == nil {
				content := string(data)
				item.Content = &content
			}
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *Source) ReadFile(ctx context.Context, file domain.SourceItem) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := file.DownloadRef
	if ref == "" {
		ref = file.Path
	}
	data, err := os.ReadFile(s.abs(ref))
	if err != nil {
		return "", &domain.DataAccessError{Op: "read", Path: file.Path, Err: err}
	}
	return string(data), nil
}

func (s *Source) abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

func (s *Source) eager(name string) bool {
	if len(s.opts.EagerExtensions) == 0 {
		return true
	}
	for _, ext := range s.opts.EagerExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (s *Source) shouldExclude(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err == nil && matched {
			return true
		}
	}
	return false
}
