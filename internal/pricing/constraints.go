package pricing

import "strings"

// Evaluate checks a value against advisory constraints and returns the
// messages of every rule that fires. A minimum fires only for values that
// are set but below the threshold; zero means "not entered yet" and stays
// silent. Results never block pricing.
func Evaluate(value int64, constraints []SoftConstraint) []string {
	var warnings []string
	for _, c := range constraints {
		switch c.Kind {
		case ConstraintMin:
			if value > 0 && value < c.Value {
				warnings = append(warnings, c.Message)
			}
		case ConstraintMax:
			if value > c.Value {
				warnings = append(warnings, c.Message)
			}
		}
	}
	return warnings
}

// Warning computes the advisory text for a configured product: the product's
// quantity-bearing constraints, per-field, per-size, and per-add-on rules,
// with special-logic tags superseding the generic handling where they apply.
// Messages are joined with single spaces for display.
func Warning(d ConfiguredProduct, product Product) string {
	var warnings []string

	switch product.ConfigType {
	case TypeUnitQuantity:
		warnings = append(warnings, quantityWarnings(d, product, d.Quantity)...)
	case TypePageCount:
		warnings = append(warnings, Evaluate(d.Pages, product.SoftConstraints)...)
	}

	for _, field := range product.CustomFields {
		value := d.FieldValues[field.ID]
		if product.SpecialLogic == SpecialPetalCountCap && field.ID == petalCountFieldID {
			if value > petalCountMax {
				warnings = append(warnings, petalCapMessage(field.Name))
			}
			continue
		}
		warnings = append(warnings, Evaluate(value, field.SoftConstraints)...)
	}

	for _, size := range product.Sizes {
		warnings = append(warnings, Evaluate(selectedSizeQuantity(d.Sizes, size.Name), size.SoftConstraints)...)
	}

	for _, addon := range product.Addons {
		selected, ok := selectedAddon(d.Addons, addon.ID)
		if !ok || !addonVisible(d, addon) {
			continue
		}
		if addon.Type == AddonCheckbox {
			continue
		}
		warnings = append(warnings, Evaluate(selected.Amount, addon.SoftConstraints)...)
	}

	return strings.Join(warnings, " ")
}

// quantityWarnings applies either the custom-variant minimum-order override
// or the product's generic quantity constraints, never both.
func quantityWarnings(d ConfiguredProduct, product Product, quantity int64) []string {
	if product.SpecialLogic == SpecialCustomVariantMinimum && d.Variant == customVariantName {
		if quantity > 0 && quantity < customVariantMinimumQty {
			return []string{customVariantMinimumMessage()}
		}
		return nil
	}
	return Evaluate(quantity, product.SoftConstraints)
}

func customVariantMinimumMessage() string {
	return "Custom designs require a minimum order of 25 pieces."
}

func petalCapMessage(fieldName string) string {
	return fieldName + " cannot exceed 150 petals per panel."
}
