package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
)

const (
	// DefaultWeightStep is the snapping step for weight products, in grams.
	DefaultWeightStep = 50
	// DefaultWeightFallback replaces malformed weight input, in grams.
	DefaultWeightFallback = 100
	// DefaultUnitStep is the snapping step for unit products.
	DefaultUnitStep = 1
	// DefaultUnitFallback replaces malformed unit input.
	DefaultUnitFallback = 1

	gramsPerKilogram = 1000
)

var thousand = decimal.NewFromInt(gramsPerKilogram)

// AmountOption customises NormalizeAmount.
type AmountOption func(*amountOptions)

type amountOptions struct {
	step     float64
	fallback float64
	snap     bool
}

// WithStep overrides the snapping step. Non-positive or non-finite steps are ignored.
func WithStep(step float64) AmountOption {
	return func(o *amountOptions) {
		if isFinite(step) && step > 0 {
			o.step = step
		}
	}
}

// WithFallback overrides the value used for malformed input.
func WithFallback(fallback float64) AmountOption {
	return func(o *amountOptions) {
		if isFinite(fallback) {
			o.fallback = fallback
		}
	}
}

// WithSnap enables rounding to the nearest multiple of the step.
func WithSnap(snap bool) AmountOption {
	return func(o *amountOptions) {
		o.snap = snap
	}
}

func defaultAmountOptions(mode domain.SaleMode) amountOptions {
	if mode == domain.SaleModeByUnit {
		return amountOptions{step: DefaultUnitStep, fallback: DefaultUnitFallback}
	}
	return amountOptions{step: DefaultWeightStep, fallback: DefaultWeightFallback}
}

// NormalizeAmount converts user input into a non-negative amount for the sale mode.
// Malformed input degrades to the fallback; zero is kept as zero.
func NormalizeAmount(raw any, mode domain.SaleMode, opts ...AmountOption) float64 {
	options := defaultAmountOptions(mode)
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	value, ok := parseAmount(raw)
	if !ok {
		value = options.fallback
	}
	if value < 0 {
		value = 0
	}
	if options.snap {
		value = snapToStep(value, options.step)
	}
	return value
}

func snapToStep(value, step float64) float64 {
	if step <= 0 || value == 0 {
		return value
	}
	s := decimal.NewFromFloat(step)
	snapped := decimal.NewFromFloat(value).Div(s).Round(0).Mul(s)
	return snapped.InexactFloat64()
}

func parseAmount(raw any) (float64, bool) {
	var value float64
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int8:
		value = float64(v)
	case int16:
		value = float64(v)
	case int32:
		value = float64(v)
	case int64:
		value = float64(v)
	case uint:
		value = float64(v)
	case uint8:
		value = float64(v)
	case uint16:
		value = float64(v)
	case uint32:
		value = float64(v)
	case uint64:
		value = float64(v)
	case decimal.Decimal:
		value = v.InexactFloat64()
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		value = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	default:
		return 0, false
	}
	if !isFinite(value) {
		return 0, false
	}
	return value, true
}

// FormatAmountLabel renders an amount for display: "150g", "1.5kg" or "3u".
func FormatAmountLabel(amount float64, mode domain.SaleMode) string {
	if !isFinite(amount) || amount <= 0 {
		amount = 0
	}
	rounded := decimal.NewFromFloat(amount).Round(2)
	if mode == domain.SaleModeByUnit {
		return trimmedNumber(rounded) + "u"
	}
	if rounded.LessThan(thousand) {
		return trimmedNumber(rounded) + "g"
	}
	return trimmedNumber(rounded.Div(thousand)) + "kg"
}

// AmountKey renders the exact amount for line identity: grams for weight products,
// units otherwise. Unlike the label it never rounds, so 1231 and 1234 stay distinct.
func AmountKey(amount float64, mode domain.SaleMode) string {
	if !isFinite(amount) || amount <= 0 {
		amount = 0
	}
	suffix := "g"
	if mode == domain.SaleModeByUnit {
		suffix = "u"
	}
	return strconv.FormatFloat(amount, 'f', -1, 64) + suffix
}

// trimmedNumber keeps at most two decimals and drops trailing zeros.
func trimmedNumber(d decimal.Decimal) string {
	return d.Round(2).String()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
