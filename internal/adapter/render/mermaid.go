package render

import (
	"fmt"
	"regexp"
	"strings"

	"flowgen/internal/domain"
)

const headerToken = "flowchart"

var (
	nodePattern = regexp.MustCompile(`(?m)^\s*[A-Za-z0-9]+(\[|\()`)
	edgePattern = regexp.MustCompile(`(?m)^\s*[A-Za-z0-9]+ -->`)
	nonAlnum    = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// MermaidRenderer renders a component forest as a Mermaid flowchart.
type MermaidRenderer struct {
	direction string
}

func NewMermaidRenderer(direction string) *MermaidRenderer {
	if !domain.ValidDirection(direction) {
		direction = "TD"
	}
	return &MermaidRenderer{direction: direction}
}

// RenderDiagram renders components with the default top-down layout.
func RenderDiagram(components []*domain.Component) (string, error) {
	return NewMermaidRenderer("TD").Render(components)
}

// Render emits node declarations depth-first from the display roots, then one
// edge per parent/child pair, and validates the result. Components are
// identified by name; on duplicate names the last one wins.
func (r *MermaidRenderer) Render(components []*domain.Component) (string, error) {
	lookup := make(map[string]*domain.Component, len(components))
	for _, c := range components {
		lookup[c.Name] = c
	}
	resolve := func(c *domain.Component) *domain.Component {
		if l, ok := lookup[c.Name]; ok {
			return l
		}
		return c
	}

	var nodes []*domain.Component
	seen := make(map[*domain.Component]bool, len(components))
	for _, c := range components {
		c = resolve(c)
		if !seen[c] {
			seen[c] = true
			nodes = append(nodes, c)
		}
	}

	isChild := make(map[*domain.Component]bool)
	for _, n := range nodes {
		for _, ch := range n.Children {
			isChild[resolve(ch)] = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", headerToken, r.direction)

	declared := make(map[*domain.Component]bool)
	var declare func(c *domain.Component)
	declare = func(c *domain.Component) {
		if declared[c] {
			return
		}
		declared[c] = true
		b.WriteString("  ")
		b.WriteString(nodeDecl(c))
		b.WriteString("\n")
		for _, ch := range c.Children {
			declare(resolve(ch))
		}
	}
	for _, n := range nodes {
		if !isChild[n] {
			declare(n)
		}
	}
	// Components only reachable through an import cycle.
	for _, n := range nodes {
		declare(n)
	}

	wroteEdge := false
	linked := make(map[[2]*domain.Component]bool)
	for _, n := range nodes {
		for _, ch := range n.Children {
			child := resolve(ch)
			pair := [2]*domain.Component{n, child}
			if linked[pair] {
				continue
			}
			linked[pair] = true
			if !wroteEdge {
				b.WriteString("\n")
				wroteEdge = true
			}
			fmt.Fprintf(&b, "  %s -->|%s| %s\n", NodeID(n.Name), EdgeLabel(n.Role, child.Role), NodeID(child.Name))
		}
	}

	out := b.String()
	if err := Validate(out); err != nil {
		return "", err
	}
	return out, nil
}

// Validate checks the minimal structure of a flowchart.
func Validate(diagram string) error {
	if !strings.Contains(diagram, headerToken) {
		return &domain.ValidationError{Rule: "missing flowchart header"}
	}
	if !nodePattern.MatchString(diagram) {
		return &domain.ValidationError{Rule: "no node declarations"}
	}
	if !edgePattern.MatchString(diagram) {
		return &domain.ValidationError{Rule: "no edge declarations"}
	}
	return nil
}

// NodeID strips every non-alphanumeric character from name. Distinct names
// may collide.
func NodeID(name string) string {
	id := nonAlnum.ReplaceAllString(name, "")
	if id == "" {
		return "component"
	}
	return id
}

func nodeDecl(c *domain.Component) string {
	label := escapeLabel(fmt.Sprintf("%s (%s)", c.Name, c.Role))
	id := NodeID(c.Name)
	switch c.Role {
	case domain.RolePage:
		return fmt.Sprintf(`%s["%s"]`, id, label)
	case domain.RoleLayout:
		return fmt.Sprintf(`%s[["%s"]]`, id, label)
	default:
		return fmt.Sprintf(`%s(["%s"])`, id, label)
	}
}

// EdgeLabel names the relationship between a parent and a child role.
func EdgeLabel(parent, child domain.Role) string {
	switch {
	case parent == domain.RoleLayout && child == domain.RolePage:
		return "contains"
	case parent == domain.RolePage && child == domain.RoleGeneric:
		return "uses"
	case parent == domain.RoleGeneric && child == domain.RoleGeneric:
		return "composes"
	default:
		return "relates to"
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
