package domain

// ToNodes converts components into their JSON-compatible form. Children are
// nested recursively; a child already on the current path is emitted without
// its own children so import cycles terminate.
func ToNodes(components []*Component) []Node {
	nodes := make([]Node, 0, len(components))
	for _, c := range components {
		nodes = append(nodes, toNode(c, map[*Component]bool{}))
	}
	return nodes
}

func toNode(c *Component, onPath map[*Component]bool) Node {
	n := Node{
		Name:     c.Name,
		Role:     c.Role,
		FilePath: c.FilePath,
		Imports:  append([]string{}, c.ImportTargets...),
		Children: []Node{},
	}
	if onPath[c] {
		return n
	}
	onPath[c] = true
	for _, child := range c.Children {
		n.Children = append(n.Children, toNode(child, onPath))
	}
	delete(onPath, c)
	return n
}

// FromNodes rebuilds components from their JSON-compatible form. Components
// are identified by name; the last top-level entry with a given name wins.
// Children that never appear at the top level are appended after the
// top-level components.
func FromNodes(nodes []Node) []*Component {
	byName := make(map[string]*Component, len(nodes))
	var order []*Component

	for _, n := range nodes {
		c := &Component{
			Name:          n.Name,
			Role:          n.Role,
			FilePath:      n.FilePath,
			ImportTargets: append([]string{}, n.Imports...),
		}
		if prev, ok := byName[n.Name]; ok {
			for i, o := range order {
				if o == prev {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
		}
		byName[n.Name] = c
		order = append(order, c)
	}

	var link func(parent *Component, children []Node)
	link = func(parent *Component, children []Node) {
		for _, cn := range children {
			child, ok := byName[cn.Name]
			if !ok {
				child = &Component{
					Name:          cn.Name,
					Role:          cn.Role,
					FilePath:      cn.FilePath,
					ImportTargets: append([]string{}, cn.Imports...),
				}
				byName[cn.Name] = child
				order = append(order, child)
			}
			parent.AddChild(child)
			link(child, cn.Children)
		}
	}
	for _, n := range nodes {
		link(byName[n.Name], n.Children)
	}

	return order
}
