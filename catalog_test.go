package staging

import "testing"

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog()

	tmpl, ok := c.Lookup("inverter")
	if !ok {
		t.Fatalf("inverter missing from default catalog")
	}
	if tmpl.Shortform != "INV" || len(tmpl.Tags) == 0 {
		t.Fatalf("unexpected inverter template: %+v", tmpl)
	}
	if _, ok := c.Lookup("submarine"); ok {
		t.Fatalf("lookup of unknown ref should fail")
	}
	if len(c.Templates()) != 5 {
		t.Fatalf("expected 5 default templates, got %d", len(c.Templates()))
	}
}
