package usecase

import "strings"

// FormatDocument wraps a diagram in a markdown document under heading.
func FormatDocument(heading, diagram string) string {
	var b strings.Builder
	if heading != "" {
		b.WriteString(heading)
		b.WriteString("\n\n")
	}
	b.WriteString("```mermaid\n")
	b.WriteString(strings.TrimRight(diagram, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}

