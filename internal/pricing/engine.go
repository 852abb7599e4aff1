package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// HasValidOffer reports whether the product's offer price is present, positive and
// strictly below the base price. Stored offers are never trusted.
func HasValidOffer(product domain.Product) bool {
	if !product.OfferPrice.Valid {
		return false
	}
	offer := product.OfferPrice.Decimal
	return offer.IsPositive() && offer.LessThan(product.BasePrice)
}

// EffectiveUnitPrice returns the price charged per kilogram or per unit.
func EffectiveUnitPrice(product domain.Product) decimal.Decimal {
	if HasValidOffer(product) {
		return product.OfferPrice.Decimal
	}
	return product.BasePrice
}

// DiscountPercent returns the rounded discount of a valid offer, or 0.
func DiscountPercent(product domain.Product) int {
	if !HasValidOffer(product) {
		return 0
	}
	off := product.BasePrice.Sub(product.OfferPrice.Decimal)
	return int(off.Mul(hundred).Div(product.BasePrice).Round(0).IntPart())
}

// LineTotal prices a normalized amount of the product in whole currency units.
// Weight amounts are grams against a per-kilogram price.
func LineTotal(product domain.Product, amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0
	}
	price := EffectiveUnitPrice(product)
	if !price.IsPositive() {
		return 0
	}

	total := price.Mul(decimal.NewFromFloat(amount))
	if product.SaleMode != domain.SaleModeByUnit {
		total = total.Div(thousand)
	}
	return total.Round(0).IntPart()
}

// Quote is the priced view of one product at one normalized amount.
type Quote struct {
	Amount          float64
	AmountLabel     string
	UnitPrice       decimal.Decimal
	DiscountPercent int
	LineTotal       int64
}

// Purchasable reports whether the quote yields a positive total.
func (q Quote) Purchasable() bool {
	return q.LineTotal > 0
}

// QuoteProduct normalizes raw input for the product and prices it.
func QuoteProduct(product domain.Product, raw any, opts ...AmountOption) Quote {
	amount := NormalizeAmount(raw, product.SaleMode, opts...)
	return Quote{
		Amount:          amount,
		AmountLabel:     FormatAmountLabel(amount, product.SaleMode),
		UnitPrice:       EffectiveUnitPrice(product),
		DiscountPercent: DiscountPercent(product),
		LineTotal:       LineTotal(product, amount),
	}
}
