package staging

// TreeNode is one node of the derived preview tree. It is a value type built
// from positional snapshots; mutating it never touches the editor.
type TreeNode struct {
	Name        string     `json:"name"`
	Type        string     `json:"type,omitempty"`
	Status      string     `json:"status,omitempty"`
	DeviceCount int        `json:"device_count"`
	Children    []TreeNode `json:"children,omitempty"`
}

// BuildTree nests the flat collection into the physical hierarchy the review
// screen renders: a synthetic "Grid" root, one "Plant" child labelled with the
// plant's working name, then every plant-attached device expanded recursively.
// Children are grouped by parent in one pass, so construction is O(n).
func BuildTree(nodes []DeviceNode, plantLabel string) TreeNode {
	children := make(map[int][]DeviceNode, len(nodes))
	for _, n := range nodes {
		children[n.Parent] = append(children[n.Parent], n)
	}

	plant := TreeNode{
		Name:        plantLabel,
		Type:        "plant",
		DeviceCount: len(children[Root]),
		Children:    buildChildren(children, Root),
	}

	return TreeNode{
		Name:        "Grid",
		Type:        "grid",
		DeviceCount: 1,
		Children:    []TreeNode{plant},
	}
}

func buildChildren(children map[int][]DeviceNode, parent int) []TreeNode {
	group := children[parent]
	if len(group) == 0 {
		return nil
	}
	out := make([]TreeNode, 0, len(group))
	for _, n := range group {
		out = append(out, TreeNode{
			Name:        n.Name,
			Type:        typeLabel(n.Template),
			Status:      n.Status,
			DeviceCount: len(children[n.Position]),
			Children:    buildChildren(children, n.Position),
		})
	}
	return out
}

func typeLabel(t Template) string {
	if t.Shortform != "" {
		return t.Shortform
	}
	return t.Name
}
