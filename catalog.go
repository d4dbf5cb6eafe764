package staging

// TemplateTag is a measurement or attribute a device template offers.
type TemplateTag struct {
	Ref         string `json:"ref"`
	DisplayName string `json:"display_name"`
	DataType    string `json:"data_type"`
	Unit        string `json:"unit,omitempty"`
}

// Template is a device-type catalog entry. Ref identifies it to the backend;
// Shortform is the short code shown in compact views.
type Template struct {
	Ref       string        `json:"ref"`
	Name      string        `json:"name"`
	Shortform string        `json:"shortform,omitempty"`
	Tags      []TemplateTag `json:"tags,omitempty"`
}

// Catalog is an in-memory device-template catalog.
type Catalog struct {
	templates []Template
	byRef     map[string]Template
}

// NewCatalog builds a catalog from the given templates.
func NewCatalog(templates ...Template) *Catalog {
	c := &Catalog{
		templates: templates,
		byRef:     make(map[string]Template, len(templates)),
	}
	for _, t := range templates {
		c.byRef[t.Ref] = t
	}
	return c
}

// Lookup returns the template with the given ref.
func (c *Catalog) Lookup(ref string) (Template, bool) {
	t, ok := c.byRef[ref]
	return t, ok
}

// Templates returns every catalog entry.
func (c *Catalog) Templates() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// DefaultCatalog returns the built-in solar plant device catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Template{
			Ref: "transformer", Name: "Transformer", Shortform: "TRF",
			Tags: []TemplateTag{
				{Ref: "oil_temp", DisplayName: "Oil Temperature", DataType: "float", Unit: "°C"},
				{Ref: "load", DisplayName: "Load", DataType: "float", Unit: "kVA"},
			},
		},
		Template{
			Ref: "inverter", Name: "Inverter", Shortform: "INV",
			Tags: []TemplateTag{
				{Ref: "ac_power", DisplayName: "AC Power", DataType: "float", Unit: "kW"},
				{Ref: "dc_power", DisplayName: "DC Power", DataType: "float", Unit: "kW"},
				{Ref: "efficiency", DisplayName: "Efficiency", DataType: "float", Unit: "%"},
			},
		},
		Template{
			Ref: "string", Name: "String", Shortform: "STR",
			Tags: []TemplateTag{
				{Ref: "dc_current", DisplayName: "DC Current", DataType: "float", Unit: "A"},
				{Ref: "dc_voltage", DisplayName: "DC Voltage", DataType: "float", Unit: "V"},
			},
		},
		Template{
			Ref: "meter", Name: "Energy Meter", Shortform: "MTR",
			Tags: []TemplateTag{
				{Ref: "energy_export", DisplayName: "Exported Energy", DataType: "float", Unit: "kWh"},
				{Ref: "energy_import", DisplayName: "Imported Energy", DataType: "float", Unit: "kWh"},
			},
		},
		Template{
			Ref: "weather_station", Name: "Weather Station", Shortform: "WS",
			Tags: []TemplateTag{
				{Ref: "irradiance", DisplayName: "Irradiance", DataType: "float", Unit: "W/m²"},
				{Ref: "ambient_temp", DisplayName: "Ambient Temperature", DataType: "float", Unit: "°C"},
			},
		},
	)
}
