package domain

import "strings"

// ItemKind distinguishes files from directories in a data source listing.
type ItemKind string

const (
	KindFile      ItemKind = "file"
	KindDirectory ItemKind = "directory"
)

// SourceItem is one entry produced by a data source.
type SourceItem struct {
	Name string
	Path string
	Kind ItemKind

	// Content is set when the data source loads files eagerly.
	Content *string

	// DownloadRef is an opaque handle used to fetch content lazily.
	DownloadRef string
}

func (i SourceItem) IsDir() bool {
	return i.Kind == KindDirectory
}

// Role classifies a component by the part it plays in the UI tree.
type Role int

const (
	RoleGeneric Role = iota
	RolePage
	RoleLayout
)

func (r Role) String() string {
	switch r {
	case RolePage:
		return "page"
	case RoleLayout:
		return "layout"
	default:
		return "component"
	}
}

// ParseRole converts the serialized role name back into a Role.
// Unknown names map to RoleGeneric.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "page":
		return RolePage
	case "layout":
		return RoleLayout
	default:
		return RoleGeneric
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

// Component is one node of the component graph. Children are the components
// that import this one.
type Component struct {
	Name          string
	Role          Role
	FilePath      string
	ImportTargets []string
	Children      []*Component
}

// AddChild appends c unless it is already a child.
func (c *Component) AddChild(child *Component) bool {
	for _, existing := range c.Children {
		if existing == child {
			return false
		}
	}
	c.Children = append(c.Children, child)
	return true
}

// Forest is the output of a graph build. Components keep discovery order.
type Forest struct {
	Components []*Component

	// Roots holds the components whose import targets are empty.
	Roots []*Component

	// Skipped lists the paths of files whose content could not be read.
	Skipped []string
}

// Edge is a (parent, child) pair present in a forest.
type Edge struct {
	From *Component
	To   *Component
}

// Edges returns every parent→child relationship in discovery order.
func (f *Forest) Edges() []Edge {
	var edges []Edge
	for _, c := range f.Components {
		for _, child := range c.Children {
			edges = append(edges, Edge{From: c, To: child})
		}
	}
	return edges
}

// Node is the JSON-compatible form of a component.
type Node struct {
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	FilePath string   `json:"filePath"`
	Imports  []string `json:"imports"`
	Children []Node   `json:"children"`
}
