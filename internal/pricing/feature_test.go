package pricing_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/pricing"
)

type pricingScenario struct {
	product    domain.Product
	lineTotal  int64
	normalized float64
	lines      []domain.CartLine
	delivery   domain.DeliveryContext
	summary    domain.OrderSummary
}

func (s *pricingScenario) reset() {
	*s = pricingScenario{delivery: domain.DeliveryContext{Method: domain.DeliveryPickup}}
}

func saleModeFor(kind string) domain.SaleMode {
	if kind == "unit" {
		return domain.SaleModeByUnit
	}
	return domain.SaleModeByWeight
}

func (s *pricingScenario) aProductPricedAt(kind string, price int) error {
	s.product = domain.Product{
		ID:        "feature-product",
		Name:      "Producto",
		SaleMode:  saleModeFor(kind),
		BasePrice: decimal.NewFromInt(int64(price)),
		Available: true,
	}
	return nil
}

func (s *pricingScenario) theProductHasAnOfferPriceOf(price int) error {
	s.product.OfferPrice = decimal.NewNullDecimal(decimal.NewFromInt(int64(price)))
	return nil
}

func (s *pricingScenario) iPrice(amount int) error {
	s.lineTotal = pricing.LineTotal(s.product, float64(amount))
	return nil
}

func (s *pricingScenario) theLineTotalIs(expected int) error {
	if s.lineTotal != int64(expected) {
		return fmt.Errorf("expected line total %d, got %d", expected, s.lineTotal)
	}
	return nil
}

func (s *pricingScenario) theDiscountIs(expected int) error {
	if got := pricing.DiscountPercent(s.product); got != expected {
		return fmt.Errorf("expected discount %d%%, got %d%%", expected, got)
	}
	return nil
}

func (s *pricingScenario) aCartLineTotaling(total int) error {
	s.lines = append(s.lines, domain.CartLine{
		Key:         domain.LineKey(strconv.Itoa(len(s.lines)), "1u"),
		Name:        "Línea " + strconv.Itoa(len(s.lines)+1),
		AmountLabel: "1u",
		Quantity:    1,
		PackPrice:   int64(total),
	})
	return nil
}

func (s *pricingScenario) theDeliveryMethodIs(method string, cost int) error {
	s.delivery = domain.DeliveryContext{Method: domain.DeliveryPickup, Cost: int64(cost)}
	if method == "home delivery" {
		s.delivery.Method = domain.DeliveryHome
	}
	return nil
}

func (s *pricingScenario) iBuildTheOrderSummary() error {
	builder := pricing.NewBuilder(pricing.WithCurrencyFormatter(plainFormatter{}))
	s.summary = builder.Build(pricing.SummaryInput{Lines: s.lines, Delivery: s.delivery})
	return nil
}

func (s *pricingScenario) theSubtotalIs(expected int) error {
	if s.summary.Subtotal != int64(expected) {
		return fmt.Errorf("expected subtotal %d, got %d", expected, s.summary.Subtotal)
	}
	return nil
}

func (s *pricingScenario) theGrandTotalIs(expected int) error {
	if s.summary.GrandTotal != int64(expected) {
		return fmt.Errorf("expected grand total %d, got %d", expected, s.summary.GrandTotal)
	}
	return nil
}

func (s *pricingScenario) theMessageIncludesAShippingLineOf(amount int) error {
	want := "Envío: $" + strconv.Itoa(amount)
	if !strings.Contains(s.summary.Message, want) {
		return fmt.Errorf("expected message to contain %q, got %q", want, s.summary.Message)
	}
	return nil
}

func (s *pricingScenario) theMessageHasNoShippingLine() error {
	if strings.Contains(s.summary.Message, "Envío:") {
		return fmt.Errorf("expected no shipping line, got %q", s.summary.Message)
	}
	return nil
}

func (s *pricingScenario) theRawAmountIsNormalized(raw, snap string) error {
	s.normalized = pricing.NormalizeAmount(raw, domain.SaleModeByWeight, pricing.WithSnap(snap == "enabled"))
	return nil
}

func (s *pricingScenario) theNormalizedAmountIs(expected int) error {
	if s.normalized != float64(expected) {
		return fmt.Errorf("expected normalized amount %d, got %v", expected, s.normalized)
	}
	return nil
}

func initializePricingScenario(ctx *godog.ScenarioContext) {
	s := &pricingScenario{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		s.reset()
		return ctx, nil
	})

	ctx.Step(`^a (weight|unit) product priced at (\d+)$`, s.aProductPricedAt)
	ctx.Step(`^the product has an offer price of (\d+)$`, s.theProductHasAnOfferPriceOf)
	ctx.Step(`^I price (\d+) (?:grams|units)$`, s.iPrice)
	ctx.Step(`^the line total is (\d+)$`, s.theLineTotalIs)
	ctx.Step(`^the discount is (\d+)%$`, s.theDiscountIs)
	ctx.Step(`^a cart line totaling (\d+)$`, s.aCartLineTotaling)
	ctx.Step(`^the delivery method is (pickup|home delivery) with a cost of (\d+)$`, s.theDeliveryMethodIs)
	ctx.Step(`^I build the order summary$`, s.iBuildTheOrderSummary)
	ctx.Step(`^the subtotal is (\d+)$`, s.theSubtotalIs)
	ctx.Step(`^the grand total is (\d+)$`, s.theGrandTotalIs)
	ctx.Step(`^the message includes a shipping line of (\d+)$`, s.theMessageIncludesAShippingLineOf)
	ctx.Step(`^the message has no shipping line$`, s.theMessageHasNoShippingLine)
	ctx.Step(`^the raw amount "([^"]*)" is normalized for a weight product with snapping (enabled|disabled)$`, s.theRawAmountIsNormalized)
	ctx.Step(`^the normalized amount is (\d+)$`, s.theNormalizedAmountIs)
}

func TestPricingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializePricingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/pricing.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run pricing feature tests")
	}
}
