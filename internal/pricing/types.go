package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// ConfigType selects which quantity-bearing fields drive a product's price.
type ConfigType string

const (
	// TypeUnitQuantity prices per unit by the configured quantity.
	TypeUnitQuantity ConfigType = "unit_quantity"
	// TypePageCount prices per page by the configured page count.
	TypePageCount ConfigType = "page_count"
	// TypeFlatFee bills a single design & setup charge regardless of quantity.
	TypeFlatFee ConfigType = "flat_fee"
	// TypeMultiField bills the flat charge plus one line per custom numeric field.
	TypeMultiField ConfigType = "multi_field"
	// TypeSizeMatrix prices entirely through per-size quantities.
	TypeSizeMatrix ConfigType = "size_matrix"
)

// ConstraintKind distinguishes minimum from maximum advisory rules.
type ConstraintKind string

const (
	ConstraintMin ConstraintKind = "min"
	ConstraintMax ConstraintKind = "max"
)

// SoftConstraint is an advisory business rule attached to a quantity-bearing
// field. Violations produce warnings and never block pricing or saving.
type SoftConstraint struct {
	Kind    ConstraintKind `json:"kind"`
	Value   int64          `json:"value"`
	Message string         `json:"message"`
}

// AddonType describes how an add-on's configured value is interpreted.
type AddonType string

const (
	// AddonCheckbox is a yes/no add-on whose cost scales with the parent
	// product quantity.
	AddonCheckbox AddonType = "checkbox"
	// AddonNumeric is an add-on billed by its own entered amount.
	AddonNumeric AddonType = "numeric"
	// AddonPhysicalQuantity is a numeric add-on representing physical pieces.
	AddonPhysicalQuantity AddonType = "physical_quantity"
)

// Addon defines an optional extra a client can attach to a product.
type Addon struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Type            AddonType        `json:"type"`
	RateKey         string           `json:"rateKey,omitempty"`
	SoftConstraints []SoftConstraint `json:"softConstraints,omitempty"`
	// DependsOn hides the add-on unless the referenced add-on is active.
	DependsOn string `json:"dependsOn,omitempty"`
	// VisibleIfVariant hides the add-on unless the named variant is selected.
	VisibleIfVariant string `json:"visibleIfVariant,omitempty"`
}

// CustomField defines a product-specific numeric input billed on its own rate.
type CustomField struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	RateKey         string           `json:"rateKey,omitempty"`
	SoftConstraints []SoftConstraint `json:"softConstraints,omitempty"`
}

// SizeOption defines one selectable size of a size-matrix product.
type SizeOption struct {
	Name            string           `json:"name"`
	RateKey         string           `json:"rateKey"`
	SoftConstraints []SoftConstraint `json:"softConstraints,omitempty"`
}

// Special logic tags name bespoke rules that supersede the generic
// soft-constraint handling for specific catalog products.
const (
	// SpecialCustomVariantMinimum applies a fixed minimum order quantity when
	// the "Custom" variant is selected, replacing the generic quantity rules.
	SpecialCustomVariantMinimum = "custom_variant_minimum"
	// SpecialPetalCountCap caps the petal_count custom field.
	SpecialPetalCountCap = "petal_count_cap"
)

const (
	customVariantName       = "Custom"
	customVariantMinimumQty = 25
	petalCountFieldID       = "petal_count"
	petalCountMax           = 150
)

// Product is one immutable catalog entry.
type Product struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	ConfigType      ConfigType        `json:"configType"`
	BasePrice       Money             `json:"basePrice"`
	Variants        []string          `json:"variants,omitempty"`
	VariantRateKeys map[string]string `json:"variantRateKeys,omitempty"`
	SoftConstraints []SoftConstraint  `json:"softConstraints,omitempty"`
	Addons          []Addon           `json:"addons,omitempty"`
	CustomFields    []CustomField     `json:"customFields,omitempty"`
	Sizes           []SizeOption      `json:"sizes,omitempty"`
	SpecialLogic    string            `json:"specialLogic,omitempty"`
}

// Catalog is an id-indexed, order-preserving set of products.
type Catalog struct {
	byID map[int64]Product
	list []Product
}

// NewCatalog builds a catalog from the provided products. Later duplicates of
// an id replace earlier ones in the index but keep the original position.
func NewCatalog(products []Product) Catalog {
	c := Catalog{byID: make(map[int64]Product, len(products))}
	for _, p := range products {
		if _, seen := c.byID[p.ID]; !seen {
			c.list = append(c.list, p)
		}
		c.byID[p.ID] = p
	}
	return c
}

// Product returns the catalog entry for the given id.
func (c Catalog) Product(id int64) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Products returns catalog entries in their original order.
func (c Catalog) Products() []Product {
	return append([]Product(nil), c.list...)
}

// Len reports the number of distinct products.
func (c Catalog) Len() int { return len(c.list) }

// RateTable maps symbolic rate keys to unit prices in minor units.
type RateTable map[string]Money

// Resolve returns the unit price for a rate key. Unknown keys resolve to 0 so
// that a stale catalog reference under-prices a line instead of failing the
// whole pricing pass.
func (t RateTable) Resolve(key string) Money {
	if t == nil {
		return 0
	}
	return t[key]
}

// SelectedAddon records a client's choice for one add-on.
type SelectedAddon struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	// Enabled carries checkbox selections; Amount carries numeric entries.
	Enabled bool  `json:"enabled,omitempty"`
	Amount  int64 `json:"amount,omitempty"`
}

// SelectedSize records the ordered quantity for one size of a size-matrix
// product.
type SelectedSize struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// ConfiguredProduct is one catalog product as configured by a client. Fields
// that do not apply to the product's config type are ignored during pricing.
type ConfiguredProduct struct {
	ID             string             `json:"id"`
	ProductID      int64              `json:"productId"`
	ProductName    string             `json:"productName,omitempty"`
	Variant        string             `json:"variant,omitempty"`
	Quantity       int64              `json:"quantity,omitempty"`
	Pages          int64              `json:"pages,omitempty"`
	FieldValues    map[string]int64   `json:"customFieldValues,omitempty"`
	Addons         []SelectedAddon    `json:"addons,omitempty"`
	Sizes          []SelectedSize     `json:"sizes,omitempty"`
	SpecialRequest string             `json:"specialRequest,omitempty"`
	// RateOverrides replaces the resolved unit rate for any billable
	// component whose label matches a key.
	RateOverrides map[string]Money `json:"rateOverrides,omitempty"`
	// Warning holds advisory soft-constraint text, recomputed on edit.
	Warning string `json:"warning,omitempty"`
}

// BillableComponent is one priced line of a billable item.
type BillableComponent struct {
	Label      string `json:"label"`
	Multiplier int64  `json:"multiplier"`
	Rate       Money  `json:"rate"`
	Total      Money  `json:"total"`
	// Fixed marks charges that do not scale with the base item count.
	Fixed bool `json:"fixed"`
}

// BillableItem is the full priced breakdown for one configured product.
type BillableItem struct {
	ProductName         string              `json:"productName"`
	ConfiguredProductID string              `json:"configuredProductId"`
	Components          []BillableComponent `json:"components"`
}
