package pricing

// Component labels shared between catalog resolution and manual overrides.
const (
	LabelBasePrice      = "Base Price"
	LabelDesignSetupFee = "Design & Setup Fee"
)

// PriceAll walks each configured product against the catalog and rate table
// and produces its billable breakdown. The function is pure: identical inputs
// yield identical output, and items appear in input order. Configured
// products referencing an unknown catalog id, and products that resolve to
// zero billable components, are dropped silently — pricing runs continuously
// against half-finished orders and must not fail on stale or empty entries.
func PriceAll(deliverables []ConfiguredProduct, catalog Catalog, rates RateTable) []BillableItem {
	items := make([]BillableItem, 0, len(deliverables))
	for _, d := range deliverables {
		product, ok := catalog.Product(d.ProductID)
		if !ok {
			continue
		}
		components := priceOne(d, product, rates)
		if len(components) == 0 {
			continue
		}
		items = append(items, BillableItem{
			ProductName:         displayName(d, product),
			ConfiguredProductID: d.ID,
			Components:          components,
		})
	}
	return items
}

func priceOne(d ConfiguredProduct, product Product, rates RateTable) []BillableComponent {
	base := baseRate(d, product, rates)
	var components []BillableComponent

	switch product.ConfigType {
	case TypeUnitQuantity:
		if d.Quantity > 0 {
			components = append(components, component(LabelBasePrice, d.Quantity, base, false))
		}
	case TypePageCount:
		if d.Pages > 0 {
			components = append(components, component(LabelBasePrice, d.Pages, base, false))
		}
	case TypeFlatFee, TypeMultiField:
		if base > 0 {
			components = append(components, component(LabelDesignSetupFee, 1, base, true))
		}
	case TypeSizeMatrix:
		// Priced entirely through the per-size components below.
	}

	for _, field := range product.CustomFields {
		value := d.FieldValues[field.ID]
		if value <= 0 {
			continue
		}
		components = append(components, component(field.Name, value, rates.Resolve(field.RateKey), true))
	}

	for _, size := range product.Sizes {
		qty := selectedSizeQuantity(d.Sizes, size.Name)
		if qty <= 0 {
			continue
		}
		components = append(components, component(size.Name, qty, rates.Resolve(size.RateKey), false))
	}

	for _, addon := range product.Addons {
		selected, ok := selectedAddon(d.Addons, addon.ID)
		if !ok || !addonActive(selected, addon.Type) {
			continue
		}
		if !addonVisible(d, addon) {
			continue
		}
		multiplier := addonMultiplier(d, selected, addon.Type)
		if multiplier <= 0 {
			continue
		}
		components = append(components, component(addon.Name, multiplier, rates.Resolve(addon.RateKey), addon.Type != AddonCheckbox))
	}

	return applyOverrides(components, d.RateOverrides)
}

// baseRate resolves the unit rate for the base component: a variant-specific
// rate-table entry when one is defined for the selected variant, otherwise
// the product's base price.
func baseRate(d ConfiguredProduct, product Product, rates RateTable) Money {
	if d.Variant != "" {
		if key, ok := product.VariantRateKeys[d.Variant]; ok {
			return rates.Resolve(key)
		}
	}
	return product.BasePrice
}

func component(label string, multiplier int64, rate Money, fixed bool) BillableComponent {
	return BillableComponent{
		Label:      label,
		Multiplier: multiplier,
		Rate:       rate,
		Total:      rate * multiplier,
		Fixed:      fixed,
	}
}

func selectedAddon(selections []SelectedAddon, id string) (SelectedAddon, bool) {
	for _, s := range selections {
		if s.ID == id {
			return s, true
		}
	}
	return SelectedAddon{}, false
}

func selectedSizeQuantity(selections []SelectedSize, name string) int64 {
	for _, s := range selections {
		if s.Name == name {
			return s.Quantity
		}
	}
	return 0
}

func addonActive(selected SelectedAddon, typ AddonType) bool {
	if typ == AddonCheckbox {
		return selected.Enabled
	}
	return selected.Amount > 0
}

// addonVisible evaluates the add-on's conditional visibility: a dependency on
// another active add-on, or on the selected variant. Dependencies are a
// single id lookup; the catalog loader guarantees references resolve and do
// not self-reference.
func addonVisible(d ConfiguredProduct, addon Addon) bool {
	if addon.VisibleIfVariant != "" && addon.VisibleIfVariant != d.Variant {
		return false
	}
	if addon.DependsOn != "" {
		parent, ok := selectedAddon(d.Addons, addon.DependsOn)
		if !ok || (!parent.Enabled && parent.Amount <= 0) {
			return false
		}
	}
	return true
}

// addonMultiplier determines how many units of the add-on are billed.
// Checkbox add-ons scale with the parent product quantity (defaulting to 1
// when the product carries none) since their cost tracks the base item
// count; numeric add-ons bill their own entered amount.
func addonMultiplier(d ConfiguredProduct, selected SelectedAddon, typ AddonType) int64 {
	if typ == AddonCheckbox {
		if d.Quantity > 0 {
			return d.Quantity
		}
		return 1
	}
	return selected.Amount
}

// applyOverrides swaps in manually entered unit rates for components whose
// label matches an override key, recomputing the line total. Re-running
// pricing with the same overrides yields the same result.
func applyOverrides(components []BillableComponent, overrides map[string]Money) []BillableComponent {
	if len(overrides) == 0 {
		return components
	}
	for i, c := range components {
		if rate, ok := overrides[c.Label]; ok {
			components[i].Rate = rate
			components[i].Total = rate * c.Multiplier
		}
	}
	return components
}

func displayName(d ConfiguredProduct, product Product) string {
	name := d.ProductName
	if name == "" {
		name = product.Name
	}
	if d.Variant != "" {
		return name + " (" + d.Variant + ")"
	}
	return name
}
