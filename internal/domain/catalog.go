package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleMode determines the unit of a purchase amount and how the base price is read.
type SaleMode string

const (
	// SaleModeByWeight prices the product per kilogram; amounts are grams.
	SaleModeByWeight SaleMode = "byWeight"
	// SaleModeByUnit prices the product per discrete unit; amounts are whole units.
	SaleModeByUnit SaleMode = "byUnit"
)

// Valid reports whether the sale mode is one of the known values.
func (m SaleMode) Valid() bool {
	return m == SaleModeByWeight || m == SaleModeByUnit
}

// ParseSaleMode accepts the canonical names plus the storefront spellings ("kg", "u", "unidad").
func ParseSaleMode(raw string) (SaleMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "byweight", "weight", "kg", "peso":
		return SaleModeByWeight, true
	case "byunit", "unit", "u", "unidad":
		return SaleModeByUnit, true
	default:
		return "", false
	}
}

// Product is the canonical catalog entry consumed by pricing and the cart.
type Product struct {
	ID           string
	Name         string
	Description  string
	CategoryID   string
	CategoryName string
	CategorySlug string
	SaleMode     SaleMode
	BasePrice    decimal.Decimal
	OfferPrice   decimal.NullDecimal
	Available    bool
	ImageURL     string
	GeneralOffer bool
	WeeklyOffer  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Category groups products for browsing.
type Category struct {
	ID           string
	Name         string
	Slug         string
	ProductCount int
}

// OfferKind selects one of the storefront offer listings.
type OfferKind string

const (
	// OfferGeneral lists products flagged as general offers.
	OfferGeneral OfferKind = "general"
	// OfferWeekly lists products flagged as offers of the week.
	OfferWeekly OfferKind = "weekly"
)

// ProductFilter narrows public catalog listings.
type ProductFilter struct {
	CategorySlug       string
	Offer              OfferKind
	Query              string
	IncludeUnavailable bool
}
