package staging

import (
	"fmt"
	"testing"
)

func TestPayloadEncodesParentsPositionally(t *testing.T) {
	e := NewEditor()
	trf, _ := e.Add(trfTmpl, Root, Attrs{SerialNumber: "TRF-1", Status: "active"})
	inv, _ := e.Add(invTmpl, trf, Attrs{TagRefs: []string{"ac_power"}})
	e.Add(strTmpl, inv, Attrs{})

	payload := Payload(e.Nodes())
	if len(payload) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(payload))
	}

	if payload[0].ParentRef != nil {
		t.Fatalf("plant-attached device should have null parent_ref, got %v", *payload[0].ParentRef)
	}
	if payload[0].TemplateRef != "transformer" || payload[0].SerialNumber != "TRF-1" || payload[0].Status != "active" {
		t.Fatalf("attributes not copied: %+v", payload[0])
	}
	if payload[1].ParentRef == nil || *payload[1].ParentRef != 0 {
		t.Fatalf("inverter parent_ref = %v, want 0", payload[1].ParentRef)
	}
	if payload[2].ParentRef == nil || *payload[2].ParentRef != 1 {
		t.Fatalf("string parent_ref = %v, want 1", payload[2].ParentRef)
	}
	if len(payload[1].TagRefs) != 1 || payload[1].TagRefs[0] != "ac_power" {
		t.Fatalf("tag refs not copied: %+v", payload[1])
	}
	if payload[0].DeviceID != "" {
		t.Fatalf("new device should carry no device_id, got %q", payload[0].DeviceID)
	}
}

func TestEditorFromDevicesMapsParentIDs(t *testing.T) {
	records := []DeviceRecord{
		{ID: "d-1", TemplateRef: "transformer", Name: "Transformer 1"},
		{ID: "d-2", TemplateRef: "inverter", Name: "Inverter 1", ParentID: "d-1"},
		{ID: "d-3", TemplateRef: "string", Name: "String 1", ParentID: "d-2"},
	}

	e := EditorFromDevices(records, DefaultCatalog())
	nodes := e.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[0].Parent != Root || nodes[1].Parent != 0 || nodes[2].Parent != 1 {
		t.Fatalf("parents not rehydrated: %d %d %d", nodes[0].Parent, nodes[1].Parent, nodes[2].Parent)
	}
	if nodes[1].ExistingID != "d-2" {
		t.Fatalf("existing id lost: %+v", nodes[1])
	}
	// Catalog lookup restores the full template.
	if nodes[1].Template.Shortform != "INV" {
		t.Fatalf("template not resolved from catalog: %+v", nodes[1].Template)
	}
}

func TestEditorFromDevicesToleratesMissingParents(t *testing.T) {
	records := []DeviceRecord{
		// Parent listed after the child, and one parent that no longer exists.
		{ID: "d-1", TemplateRef: "string", Name: "String 1", ParentID: "d-2"},
		{ID: "d-2", TemplateRef: "inverter", Name: "Inverter 1", ParentID: "gone"},
		{ID: "d-3", TemplateRef: "unlisted-type", Name: "Mystery 1"},
	}

	e := EditorFromDevices(records, DefaultCatalog())
	nodes := e.Nodes()

	if nodes[0].Parent != 1 {
		t.Fatalf("forward parent reference not resolved: %d", nodes[0].Parent)
	}
	if nodes[1].Parent != Root {
		t.Fatalf("unresolvable parent should fall back to Root, got %d", nodes[1].Parent)
	}
	if nodes[2].Template.Ref != "unlisted-type" {
		t.Fatalf("unknown template should keep its ref: %+v", nodes[2].Template)
	}
	checkInvariants(t, e)
}

// Round-trip: rehydrating a persisted device list and emitting a submission
// payload preserves every parent/child relationship, modulo renumbering.
func TestRoundTripPreservesStructure(t *testing.T) {
	// Depth-3 forest with branching, deliberately not in parent-first order.
	records := []DeviceRecord{
		{ID: "s-1", TemplateRef: "string", Name: "String 1", ParentID: "i-1"},
		{ID: "t-1", TemplateRef: "transformer", Name: "Transformer 1"},
		{ID: "i-1", TemplateRef: "inverter", Name: "Inverter 1", ParentID: "t-1"},
		{ID: "i-2", TemplateRef: "inverter", Name: "Inverter 2", ParentID: "t-1"},
		{ID: "s-2", TemplateRef: "string", Name: "String 2", ParentID: "i-2"},
		{ID: "t-2", TemplateRef: "transformer", Name: "Transformer 2"},
	}

	payload := Payload(EditorFromDevices(records, DefaultCatalog()).Nodes())
	if len(payload) != len(records) {
		t.Fatalf("device lost in round trip: %d != %d", len(payload), len(records))
	}

	for i, p := range payload {
		want := records[i].ParentID
		if p.ParentRef == nil {
			if want != "" {
				t.Fatalf("device %d dropped parent %q", i, want)
			}
			continue
		}
		if got := payload[*p.ParentRef].DeviceID; got != want {
			t.Fatalf("device %d parent resolved to %q, want %q", i, got, want)
		}
	}
}

// Simulates the backend side of a submit: assign ids, resolve positional
// parents, return records — then reload and compare structure.
func TestSubmitReloadRoundTrip(t *testing.T) {
	e := NewEditor()
	trf, _ := e.Add(trfTmpl, Root, Attrs{})
	inv, _ := e.Add(invTmpl, trf, Attrs{})
	e.Add(strTmpl, inv, Attrs{})
	e.Add(strTmpl, inv, Attrs{})

	payload := Payload(e.Nodes())

	ids := make([]string, len(payload))
	for i := range payload {
		ids[i] = fmt.Sprintf("dev-%d", i)
	}
	records := make([]DeviceRecord, len(payload))
	for i, p := range payload {
		records[i] = DeviceRecord{
			ID:          ids[i],
			TemplateRef: p.TemplateRef,
			Name:        p.Name,
		}
		if p.ParentRef != nil {
			records[i].ParentID = ids[*p.ParentRef]
		}
	}

	reloaded := EditorFromDevices(records, DefaultCatalog())
	got := reloaded.Nodes()
	want := e.Nodes()
	for i := range want {
		if got[i].Parent != want[i].Parent {
			t.Fatalf("node %d parent = %d after reload, want %d", i, got[i].Parent, want[i].Parent)
		}
		if got[i].Name != want[i].Name {
			t.Fatalf("node %d name = %q after reload, want %q", i, got[i].Name, want[i].Name)
		}
	}
}
