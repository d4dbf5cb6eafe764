package staging

// DevicePayload is one device of an outbound plant submission. ParentRef is
// the position of the parent device within the same submitted batch, or null
// for a plant-attached device; real backend identifiers for new devices do
// not exist yet, so the batch carries parent relationships positionally and
// the backend resolves them (Store.SubmitPlant). DeviceID is set only for
// devices loaded from an already-saved plant, letting the backend tell update
// from create.
type DevicePayload struct {
	DeviceID     string   `json:"device_id,omitempty"`
	TemplateRef  string   `json:"template_ref"`
	Name         string   `json:"name"`
	ParentRef    *int     `json:"parent_ref"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Status       string   `json:"status,omitempty"`
	TagRefs      []string `json:"tag_refs,omitempty"`
}

// DeviceRecord is one device of a persisted plant as the plant-detail API
// returns it: a real id and a nullable real parent id.
type DeviceRecord struct {
	ID           string   `json:"id"`
	TemplateRef  string   `json:"template_ref"`
	Name         string   `json:"name"`
	ParentID     string   `json:"parent_device_id,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Status       string   `json:"status,omitempty"`
	TagRefs      []string `json:"tag_refs,omitempty"`
}

// Payload converts positional snapshots into the submission batch.
func Payload(nodes []DeviceNode) []DevicePayload {
	out := make([]DevicePayload, 0, len(nodes))
	for _, n := range nodes {
		p := DevicePayload{
			DeviceID:     n.ExistingID,
			TemplateRef:  n.Template.Ref,
			Name:         n.Name,
			SerialNumber: n.SerialNumber,
			Status:       n.Status,
			TagRefs:      cloneTags(n.TagRefs),
		}
		if n.Parent != Root {
			parent := n.Parent
			p.ParentRef = &parent
		}
		out = append(out, p)
	}
	return out
}

// EditorFromDevices rehydrates an editor from a persisted plant's device
// list. Devices take positions in list order; each real parent id maps to the
// position of the device carrying that id. A null or unresolvable parent id
// falls back to Root rather than failing the load. Templates are looked up in
// the catalog when available, otherwise a bare ref-only template is kept so
// the device still round-trips.
func EditorFromDevices(records []DeviceRecord, catalog *Catalog) *Editor {
	e := NewEditor()

	keyByID := make(map[string]int, len(records))
	for _, r := range records {
		tmpl := Template{Ref: r.TemplateRef, Name: r.Name}
		if catalog != nil {
			if t, ok := catalog.Lookup(r.TemplateRef); ok {
				tmpl = t
			}
		}
		n := &node{
			key:        e.nextKey,
			parent:     rootKey,
			tmpl:       tmpl,
			name:       r.Name,
			serial:     r.SerialNumber,
			status:     r.Status,
			tags:       cloneTags(r.TagRefs),
			existingID: r.ID,
		}
		e.nextKey++
		e.nodes = append(e.nodes, n)
		if r.ID != "" {
			keyByID[r.ID] = n.key
		}
	}

	// Second pass: parents may reference a device later in the list.
	for i, r := range records {
		if r.ParentID == "" {
			continue
		}
		if key, ok := keyByID[r.ParentID]; ok && key != e.nodes[i].key {
			e.nodes[i].parent = key
		}
	}

	return e
}
