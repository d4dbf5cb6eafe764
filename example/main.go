package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/heliostack/staging"
)

func main() {
	catalog := staging.DefaultCatalog()
	transformer, _ := catalog.Lookup("transformer")
	inverter, _ := catalog.Lookup("inverter")
	str, _ := catalog.Lookup("string")

	editor := staging.NewEditor()

	// ── Stage a hierarchy: plant → transformer → inverter → strings ──
	trf, err := editor.Add(transformer, staging.Root, staging.Attrs{
		SerialNumber: "TRF-0042",
		Status:       "commissioning",
	})
	if err != nil {
		log.Fatalf("add transformer: %v", err)
	}

	inv, err := editor.Add(inverter, trf, staging.Attrs{
		TagRefs: []string{"ac_power", "efficiency"},
	})
	if err != nil {
		log.Fatalf("add inverter: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := editor.Add(str, inv, staging.Attrs{}); err != nil {
			log.Fatalf("add string: %v", err)
		}
	}

	fmt.Println("staged devices:")
	printJSON(editor.Nodes())

	// ── Preview tree (Grid → Plant → devices) ─────────────────────────
	fmt.Println("\npreview tree:")
	printJSON(staging.BuildTree(editor.Nodes(), "Sunfield Park"))

	// ── Cascade delete: removing the inverter takes its strings too ───
	if err := editor.Remove(inv, false); err != nil {
		fmt.Printf("\nremove without cascade: %v\n", err)
	}
	if err := editor.Remove(inv, true); err != nil {
		log.Fatalf("remove cascade: %v", err)
	}
	fmt.Printf("\nafter cascade delete, %d device(s) remain\n", editor.Len())

	// ── Submission payload (positional parent refs) ───────────────────
	fmt.Println("\nsubmission payload:")
	printJSON(staging.Payload(editor.Nodes()))

	// ── Rehydrate from a persisted plant's device list ────────────────
	records := []staging.DeviceRecord{
		{ID: "d-1", TemplateRef: "transformer", Name: "Transformer 1"},
		{ID: "d-2", TemplateRef: "inverter", Name: "Inverter 1", ParentID: "d-1"},
		{ID: "d-3", TemplateRef: "string", Name: "String 1", ParentID: "d-2"},
	}
	reloaded := staging.EditorFromDevices(records, catalog)
	fmt.Println("\nreloaded from server device list:")
	printJSON(reloaded.Nodes())
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
