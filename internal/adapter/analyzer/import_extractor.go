package analyzer

import (
	"regexp"
	"strings"

	"flowgen/internal/port"
)

// importPattern matches `import <symbol> from '<path>'` and the brace-group
// form `import { A, B } from "<path>"`. The brace group may span lines.
var importPattern = regexp.MustCompile(`import\s+(\{[^}]*\}|[A-Za-z_$][\w$]*)\s+from\s+['"]([^'"\n]+)['"]`)

// ImportExtractor finds import statements with a lexical pattern. It is not
// a parser: statements inside comments or string literals match too.
type ImportExtractor struct {
	pattern *regexp.Regexp
}

// NewImportExtractor creates a new import extractor.
func NewImportExtractor() *ImportExtractor {
	return &ImportExtractor{pattern: importPattern}
}

// Extract returns the imports of content in source order. Named import lists
// are kept as one symbol with the braces stripped.
func (e *ImportExtractor) Extract(content string) []port.ImportRef {
	matches := e.pattern.FindAllStringSubmatch(content, -1)
	refs := make([]port.ImportRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, port.ImportRef{
			Symbol: StripBraces(m[1]),
			Path:   m[2],
		})
	}
	return refs
}

// StripBraces removes a surrounding brace pair and the whitespace inside it.
func StripBraces(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	symbol = strings.TrimPrefix(symbol, "{")
	symbol = strings.TrimSuffix(symbol, "}")
	return strings.TrimSpace(symbol)
}
