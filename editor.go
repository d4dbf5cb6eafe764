package staging

import "fmt"

// rootKey is the internal parent key meaning "attached to the plant".
// Node keys start at 1 so rootKey can never collide with a real node.
const rootKey = 0

// node is the internal representation of a staged device. Nodes are keyed by
// a stable, monotonically increasing key; parent references are stored as
// keys, so removing nodes never requires rewriting anyone's parent pointer.
// The positional view exposed by snapshots is derived on read.
type node struct {
	key        int
	parent     int // rootKey or another node's key
	tmpl       Template
	name       string
	serial     string
	status     string
	tags       []string
	existingID string
}

// Editor is the staging node store: an ordered collection of provisional
// devices for one plant. It is a single-session, in-memory structure; every
// operation is synchronous and atomic — it either fully applies or returns a
// typed rejection with the collection untouched.
type Editor struct {
	nodes   []*node
	nextKey int
}

// NewEditor returns an empty editor for a new plant.
func NewEditor() *Editor {
	return &Editor{nextKey: 1}
}

// Len returns the number of staged devices.
func (e *Editor) Len() int { return len(e.nodes) }

// Nodes returns positional snapshots of every staged device, in order.
func (e *Editor) Nodes() []DeviceNode {
	pos := e.positionByKey()
	out := make([]DeviceNode, len(e.nodes))
	for i, n := range e.nodes {
		out[i] = e.snapshot(n, i, pos)
	}
	return out
}

// Node returns the snapshot at the given position.
func (e *Editor) Node(position int) (DeviceNode, bool) {
	if position < 0 || position >= len(e.nodes) {
		return DeviceNode{}, false
	}
	return e.snapshot(e.nodes[position], position, e.positionByKey()), true
}

// Add appends a device built from the given template at the end of the
// collection and returns its position. parent is Root or the position of an
// existing device. An empty attrs.Name defaults to the template name plus an
// ordinal counting devices of the same template.
func (e *Editor) Add(tmpl Template, parent int, attrs Attrs) (int, error) {
	parentKey, err := e.resolveParent(parent)
	if err != nil {
		return 0, err
	}
	if err := validateTags(tmpl, attrs.TagRefs); err != nil {
		return 0, err
	}

	name := attrs.Name
	if name == "" {
		ordinal := 1
		for _, n := range e.nodes {
			if n.tmpl.Ref == tmpl.Ref {
				ordinal++
			}
		}
		name = fmt.Sprintf("%s %d", tmpl.Name, ordinal)
	}

	n := &node{
		key:    e.nextKey,
		parent: parentKey,
		tmpl:   tmpl,
		name:   name,
		serial: attrs.SerialNumber,
		status: attrs.Status,
		tags:   cloneTags(attrs.TagRefs),
	}
	e.nextKey++
	e.nodes = append(e.nodes, n)
	return len(e.nodes) - 1, nil
}

// Update replaces the mutable fields of the device at position. Reassigning
// the parent is validated before anything is written: the new parent must
// exist and must not lie inside the device's own subtree.
func (e *Editor) Update(position, parent int, attrs Attrs) error {
	if position < 0 || position >= len(e.nodes) {
		return ErrNodeNotFound
	}
	n := e.nodes[position]

	parentKey, err := e.resolveParent(parent)
	if err != nil {
		return err
	}
	if parentKey == n.key || e.isAncestor(n.key, parentKey) {
		return ErrCycleDetected
	}
	if err := validateTags(n.tmpl, attrs.TagRefs); err != nil {
		return err
	}

	n.parent = parentKey
	if attrs.Name != "" {
		n.name = attrs.Name
	}
	n.serial = attrs.SerialNumber
	n.status = attrs.Status
	n.tags = cloneTags(attrs.TagRefs)
	return nil
}

// Remove deletes the device at position. Without cascade it refuses with
// ErrHasChildren when the device has descendants, so the caller can confirm
// before losing a subtree. With cascade it removes the device and its entire
// descendant closure in one step; surviving devices keep their relative order
// and their parent relationships, with positions renumbered densely.
func (e *Editor) Remove(position int, cascade bool) error {
	if position < 0 || position >= len(e.nodes) {
		return ErrNodeNotFound
	}
	target := e.nodes[position]

	doomed := e.descendants(target.key)
	if !cascade && len(doomed) > 1 {
		return ErrHasChildren
	}

	survivors := e.nodes[:0]
	for _, n := range e.nodes {
		if !doomed[n.key] {
			survivors = append(survivors, n)
		}
	}
	e.nodes = survivors
	return nil
}

// AvailableParents returns every position a device at excluding could be
// re-parented to, which is every position but its own. Pass a negative
// position when adding a new device to get the full list.
func (e *Editor) AvailableParents(excluding int) []int {
	out := make([]int, 0, len(e.nodes))
	for i := range e.nodes {
		if i != excluding {
			out = append(out, i)
		}
	}
	return out
}

// descendants returns the key set of the node and its transitive children,
// computed breadth-first over a children index built in one pass.
func (e *Editor) descendants(key int) map[int]bool {
	children := make(map[int][]int, len(e.nodes))
	for _, n := range e.nodes {
		children[n.parent] = append(children[n.parent], n.key)
	}

	doomed := map[int]bool{key: true}
	queue := []int{key}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, child := range children[k] {
			if !doomed[child] {
				doomed[child] = true
				queue = append(queue, child)
			}
		}
	}
	return doomed
}

// isAncestor reports whether candidate appears on the parent chain above key.
// The walk is bounded by the collection size so it terminates even if the
// chain were ever corrupted into a cycle.
func (e *Editor) isAncestor(candidate, key int) bool {
	byKey := make(map[int]*node, len(e.nodes))
	for _, n := range e.nodes {
		byKey[n.key] = n
	}

	k := key
	for range e.nodes {
		n, ok := byKey[k]
		if !ok || n.parent == rootKey {
			return false
		}
		if n.parent == candidate {
			return true
		}
		k = n.parent
	}
	return false
}

// resolveParent maps a positional parent reference to an internal key.
func (e *Editor) resolveParent(parent int) (int, error) {
	if parent == Root {
		return rootKey, nil
	}
	if parent < 0 || parent >= len(e.nodes) {
		return 0, ErrInvalidParent
	}
	return e.nodes[parent].key, nil
}

func (e *Editor) positionByKey() map[int]int {
	pos := make(map[int]int, len(e.nodes))
	for i, n := range e.nodes {
		pos[n.key] = i
	}
	return pos
}

func (e *Editor) snapshot(n *node, position int, pos map[int]int) DeviceNode {
	parent := Root
	if n.parent != rootKey {
		parent = pos[n.parent]
	}
	return DeviceNode{
		Position:     position,
		Template:     n.tmpl,
		Name:         n.name,
		Parent:       parent,
		SerialNumber: n.serial,
		Status:       n.status,
		TagRefs:      cloneTags(n.tags),
		ExistingID:   n.existingID,
	}
}

// validateTags checks that every selected tag ref exists in the template.
func validateTags(tmpl Template, tagRefs []string) error {
	for _, ref := range tagRefs {
		found := false
		for _, tag := range tmpl.Tags {
			if tag.Ref == ref {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q not in template %q", ErrUnknownTag, ref, tmpl.Ref)
		}
	}
	return nil
}

func cloneTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
