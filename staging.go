// Package staging implements the device-hierarchy staging editor: an
// in-memory, session-scoped forest of provisional devices attached to a
// not-yet-persisted plant. Devices are addressed by position (their slot in
// the ordered collection) until the backend assigns real identifiers at
// submission time.
package staging

// Root is the parent value meaning "attached directly to the plant" rather
// than to another staged device.
const Root = -1

// DeviceNode is the positional snapshot of a staged device. Position doubles
// as the node's identity while staged; Parent is Root or the position of
// another node in the same collection.
type DeviceNode struct {
	Position     int      `json:"position"`
	Template     Template `json:"template"`
	Name         string   `json:"name"`
	Parent       int      `json:"parent"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Status       string   `json:"status,omitempty"`
	TagRefs      []string `json:"tag_refs,omitempty"`
	ExistingID   string   `json:"existing_id,omitempty"`
}

// Attrs carries the mutable, free-form fields of a staged device.
// An empty Name means "derive from the template" on Add and "keep the
// current name" on Update.
type Attrs struct {
	Name         string   `json:"name"`
	SerialNumber string   `json:"serial_number"`
	Status       string   `json:"status"`
	TagRefs      []string `json:"tag_refs"`
}
