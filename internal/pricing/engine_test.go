package pricing

import (
	"reflect"
	"testing"
)

func TestUnitQuantityBaseComponent(t *testing.T) {
	catalog := NewCatalog([]Product{{ID: 1, Name: "Invitation Card", ConfigType: TypeUnitQuantity, BasePrice: 100}})
	items := PriceAll([]ConfiguredProduct{{ID: "d1", ProductID: 1, Quantity: 5}}, catalog, nil)
	if len(items) != 1 {
		t.Fatalf("expected one billable item, got %d", len(items))
	}
	want := BillableComponent{Label: LabelBasePrice, Multiplier: 5, Rate: 100, Total: 500}
	if got := items[0].Components[0]; got != want {
		t.Fatalf("unexpected base component: %+v", got)
	}
}

func TestPageCountBaseComponent(t *testing.T) {
	catalog := NewCatalog([]Product{{ID: 2, Name: "Itinerary Booklet", ConfigType: TypePageCount, BasePrice: 250}})
	items := PriceAll([]ConfiguredProduct{{ID: "d1", ProductID: 2, Pages: 8}}, catalog, nil)
	if len(items) != 1 {
		t.Fatalf("expected one billable item, got %d", len(items))
	}
	c := items[0].Components[0]
	if c.Multiplier != 8 || c.Total != 2000 || c.Fixed {
		t.Fatalf("unexpected page component: %+v", c)
	}
}

func TestVariantRateKeyOverridesBasePrice(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:              1,
		Name:            "Invitation Card",
		ConfigType:      TypeUnitQuantity,
		BasePrice:       100,
		Variants:        []string{"Classic", "Premium"},
		VariantRateKeys: map[string]string{"Premium": "k1"},
	}})
	rates := RateTable{"k1": 150}
	items := PriceAll([]ConfiguredProduct{{ID: "d1", ProductID: 1, Variant: "Premium", Quantity: 2}}, catalog, rates)
	if total := Total(items); total != 300 {
		t.Fatalf("expected variant-priced total 300, got %d", total)
	}
	if items[0].ProductName != "Invitation Card (Premium)" {
		t.Fatalf("unexpected display name %q", items[0].ProductName)
	}
}

func TestVariantWithoutRateKeyUsesBasePrice(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:              1,
		ConfigType:      TypeUnitQuantity,
		BasePrice:       100,
		Variants:        []string{"Classic", "Premium"},
		VariantRateKeys: map[string]string{"Premium": "k1"},
	}})
	items := PriceAll([]ConfiguredProduct{{ID: "d1", ProductID: 1, Variant: "Classic", Quantity: 2}}, catalog, RateTable{"k1": 150})
	if total := Total(items); total != 200 {
		t.Fatalf("expected base-priced total 200, got %d", total)
	}
}

func TestFlatFeeIgnoresQuantity(t *testing.T) {
	catalog := NewCatalog([]Product{{ID: 3, Name: "Design Retainer", ConfigType: TypeFlatFee, BasePrice: 5000}})
	items := PriceAll([]ConfiguredProduct{{ID: "d1", ProductID: 3, Quantity: 40}}, catalog, nil)
	if len(items) != 1 || len(items[0].Components) != 1 {
		t.Fatalf("expected single flat component, got %+v", items)
	}
	c := items[0].Components[0]
	if c.Label != LabelDesignSetupFee || c.Multiplier != 1 || c.Total != 5000 || !c.Fixed {
		t.Fatalf("unexpected flat component: %+v", c)
	}
}

func TestMultiFieldEmitsFlatFeeAndFieldComponents(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         4,
		Name:       "Welcome Signage",
		ConfigType: TypeMultiField,
		BasePrice:  1200,
		CustomFields: []CustomField{
			{ID: "f1", Name: "Easel Boards", RateKey: "fr"},
			{ID: "f2", Name: "Mirror Panels", RateKey: "mr"},
		},
	}})
	rates := RateTable{"fr": 20, "mr": 35}
	items := PriceAll([]ConfiguredProduct{{
		ID:          "d1",
		ProductID:   4,
		FieldValues: map[string]int64{"f1": 4},
	}}, catalog, rates)
	if len(items[0].Components) != 2 {
		t.Fatalf("expected fee + one field component, got %+v", items[0].Components)
	}
	field := items[0].Components[1]
	if field.Label != "Easel Boards" || field.Multiplier != 4 || field.Rate != 20 || field.Total != 80 || !field.Fixed {
		t.Fatalf("unexpected field component: %+v", field)
	}
}

func TestSizeMatrixComponents(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         5,
		Name:       "Favor Box",
		ConfigType: TypeSizeMatrix,
		Sizes: []SizeOption{
			{Name: "Small", RateKey: "fb_s"},
			{Name: "Large", RateKey: "fb_l"},
		},
	}})
	rates := RateTable{"fb_s": 12, "fb_l": 18}
	items := PriceAll([]ConfiguredProduct{{
		ID:        "d1",
		ProductID: 5,
		Sizes:     []SelectedSize{{Name: "Large", Quantity: 30}},
	}}, catalog, rates)
	if len(items) != 1 || len(items[0].Components) != 1 {
		t.Fatalf("expected one size component, got %+v", items)
	}
	c := items[0].Components[0]
	if c.Label != "Large" || c.Multiplier != 30 || c.Total != 540 || c.Fixed {
		t.Fatalf("unexpected size component: %+v", c)
	}
}

func TestCheckboxAddonScalesWithQuantity(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         1,
		ConfigType: TypeUnitQuantity,
		BasePrice:  100,
		Addons:     []Addon{{ID: "ribbon", Name: "Satin Ribbon", Type: AddonCheckbox, RateKey: "r1"}},
	}})
	rates := RateTable{"r1": 10}
	items := PriceAll([]ConfiguredProduct{{
		ID:        "d1",
		ProductID: 1,
		Quantity:  3,
		Addons:    []SelectedAddon{{ID: "ribbon", Enabled: true}},
	}}, catalog, rates)
	addon := items[0].Components[1]
	if addon.Multiplier != 3 || addon.Rate != 10 || addon.Total != 30 || addon.Fixed {
		t.Fatalf("unexpected add-on component: %+v", addon)
	}
}

func TestCheckboxAddonDefaultsToSingleUnit(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         3,
		ConfigType: TypeFlatFee,
		BasePrice:  5000,
		Addons:     []Addon{{ID: "rush", Name: "Rush Turnaround", Type: AddonCheckbox, RateKey: "rush"}},
	}})
	items := PriceAll([]ConfiguredProduct{{
		ID:        "d1",
		ProductID: 3,
		Addons:    []SelectedAddon{{ID: "rush", Enabled: true}},
	}}, catalog, RateTable{"rush": 750})
	addon := items[0].Components[1]
	if addon.Multiplier != 1 || addon.Total != 750 {
		t.Fatalf("expected single-unit add-on, got %+v", addon)
	}
}

func TestNumericAddonBillsOwnAmountAsFixed(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         1,
		ConfigType: TypeUnitQuantity,
		BasePrice:  100,
		Addons:     []Addon{{ID: "envelopes", Name: "Lined Envelopes", Type: AddonPhysicalQuantity, RateKey: "env"}},
	}})
	items := PriceAll([]ConfiguredProduct{{
		ID:        "d1",
		ProductID: 1,
		Quantity:  10,
		Addons:    []SelectedAddon{{ID: "envelopes", Amount: 12}},
	}}, catalog, RateTable{"env": 5})
	addon := items[0].Components[1]
	if addon.Multiplier != 12 || addon.Total != 60 || !addon.Fixed {
		t.Fatalf("unexpected numeric add-on: %+v", addon)
	}
}

func TestAddonDependsOnGatesBilling(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         1,
		ConfigType: TypeUnitQuantity,
		BasePrice:  100,
		Addons: []Addon{
			{ID: "wax_seal", Name: "Wax Seal", Type: AddonCheckbox, RateKey: "ws"},
			{ID: "seal_monogram", Name: "Seal Monogram", Type: AddonCheckbox, RateKey: "sm", DependsOn: "wax_seal"},
		},
	}})
	rates := RateTable{"ws": 4, "sm": 2}

	// Dependent add-on enabled without its parent stays invisible.
	items := PriceAll([]ConfiguredProduct{{
		ID:        "d1",
		ProductID: 1,
		Quantity:  2,
		Addons:    []SelectedAddon{{ID: "seal_monogram", Enabled: true}},
	}}, catalog, rates)
	if len(items[0].Components) != 1 {
		t.Fatalf("expected dependent add-on suppressed, got %+v", items[0].Components)
	}

	items = PriceAll([]ConfiguredProduct{{
		ID:        "d1",
		ProductID: 1,
		Quantity:  2,
		Addons: []SelectedAddon{
			{ID: "wax_seal", Enabled: true},
			{ID: "seal_monogram", Enabled: true},
		},
	}}, catalog, rates)
	if len(items[0].Components) != 3 {
		t.Fatalf("expected both add-ons billed, got %+v", items[0].Components)
	}
}

func TestAddonVisibleIfVariant(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         1,
		ConfigType: TypeUnitQuantity,
		BasePrice:  100,
		Variants:   []string{"Floral", "Minimal"},
		Addons:     []Addon{{ID: "foil", Name: "Gold Foil", Type: AddonCheckbox, RateKey: "foil", VisibleIfVariant: "Floral"}},
	}})
	rates := RateTable{"foil": 25}
	deliverable := ConfiguredProduct{
		ID:        "d1",
		ProductID: 1,
		Variant:   "Minimal",
		Quantity:  2,
		Addons:    []SelectedAddon{{ID: "foil", Enabled: true}},
	}
	items := PriceAll([]ConfiguredProduct{deliverable}, catalog, rates)
	if len(items[0].Components) != 1 {
		t.Fatalf("expected foil hidden for Minimal variant, got %+v", items[0].Components)
	}
	deliverable.Variant = "Floral"
	items = PriceAll([]ConfiguredProduct{deliverable}, catalog, rates)
	if len(items[0].Components) != 2 {
		t.Fatalf("expected foil billed for Floral variant, got %+v", items[0].Components)
	}
}

func TestUnknownProductDropped(t *testing.T) {
	catalog := NewCatalog([]Product{{ID: 1, ConfigType: TypeUnitQuantity, BasePrice: 100}})
	items := PriceAll([]ConfiguredProduct{
		{ID: "stale", ProductID: 99, Quantity: 5},
		{ID: "d1", ProductID: 1, Quantity: 1},
	}, catalog, nil)
	if len(items) != 1 || items[0].ConfiguredProductID != "d1" {
		t.Fatalf("expected stale reference dropped, got %+v", items)
	}
}

func TestZeroComponentProductDropped(t *testing.T) {
	catalog := NewCatalog([]Product{{ID: 1, ConfigType: TypeUnitQuantity, BasePrice: 100}})
	items := PriceAll([]ConfiguredProduct{{ID: "d1", ProductID: 1}}, catalog, nil)
	if len(items) != 0 {
		t.Fatalf("expected no items for unpriced configuration, got %+v", items)
	}
}

func TestMissingRateKeyResolvesToZero(t *testing.T) {
	catalog := NewCatalog([]Product{{
		ID:         1,
		ConfigType: TypeUnitQuantity,
		BasePrice:  100,
		Addons:     []Addon{{ID: "ribbon", Name: "Satin Ribbon", Type: AddonCheckbox, RateKey: "absent"}},
	}})
	items := PriceAll([]ConfiguredProduct{{
		ID:        "d1",
		ProductID: 1,
		Quantity:  2,
		Addons:    []SelectedAddon{{ID: "ribbon", Enabled: true}},
	}}, catalog, RateTable{})
	if len(items[0].Components) != 2 {
		t.Fatalf("expected both components despite missing rate key, got %+v", items[0].Components)
	}
	if items[0].Components[1].Rate != 0 || items[0].Components[1].Total != 0 {
		t.Fatalf("expected zero-rated component, got %+v", items[0].Components[1])
	}
	if total := Total(items); total != 200 {
		t.Fatalf("expected base line unaffected, got %d", total)
	}
}

func TestRateOverrideIdempotent(t *testing.T) {
	catalog := NewCatalog([]Product{{ID: 1, ConfigType: TypeUnitQuantity, BasePrice: 100}})
	deliverable := ConfiguredProduct{
		ID:            "d1",
		ProductID:     1,
		Quantity:      4,
		RateOverrides: map[string]Money{LabelBasePrice: 90},
	}
	first := PriceAll([]ConfiguredProduct{deliverable}, catalog, nil)
	second := PriceAll([]ConfiguredProduct{deliverable}, catalog, nil)
	if first[0].Components[0].Rate != 90 || first[0].Components[0].Total != 360 {
		t.Fatalf("expected overridden rate applied, got %+v", first[0].Components[0])
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("override application not idempotent: %+v vs %+v", first, second)
	}
}

func TestDeterminismAndOrderPreservation(t *testing.T) {
	catalog := NewCatalog([]Product{
		{ID: 1, Name: "Invitation Card", ConfigType: TypeUnitQuantity, BasePrice: 100},
		{ID: 3, Name: "Design Retainer", ConfigType: TypeFlatFee, BasePrice: 5000},
	})
	deliverables := []ConfiguredProduct{
		{ID: "d2", ProductID: 3},
		{ID: "d1", ProductID: 1, Quantity: 2},
		{ID: "d3", ProductID: 1, Quantity: 7},
	}
	first := PriceAll(deliverables, catalog, nil)
	second := PriceAll(deliverables, catalog, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("pricing not deterministic")
	}
	gotOrder := []string{first[0].ConfiguredProductID, first[1].ConfiguredProductID, first[2].ConfiguredProductID}
	wantOrder := []string{"d2", "d1", "d3"}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Fatalf("expected input order %v, got %v", wantOrder, gotOrder)
	}
}
