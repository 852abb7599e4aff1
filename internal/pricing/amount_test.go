package pricing_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/pricing"
)

func TestNormalizeAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  any
		mode domain.SaleMode
		opts []pricing.AmountOption
		want float64
	}{
		{name: "zero is not malformed", raw: 0, mode: domain.SaleModeByWeight, want: 0},
		{name: "zero string is not malformed", raw: "0", mode: domain.SaleModeByWeight, want: 0},
		{name: "zero with snapping", raw: 0.0, mode: domain.SaleModeByWeight, opts: []pricing.AmountOption{pricing.WithSnap(true)}, want: 0},
		{name: "letters fall back for weight", raw: "abc", mode: domain.SaleModeByWeight, want: 100},
		{name: "letters fall back for unit", raw: "abc", mode: domain.SaleModeByUnit, want: 1},
		{name: "empty string falls back", raw: "  ", mode: domain.SaleModeByWeight, want: 100},
		{name: "nil falls back", raw: nil, mode: domain.SaleModeByUnit, want: 1},
		{name: "NaN falls back", raw: math.NaN(), mode: domain.SaleModeByWeight, want: 100},
		{name: "infinity falls back", raw: math.Inf(1), mode: domain.SaleModeByWeight, want: 100},
		{name: "unsupported type falls back", raw: true, mode: domain.SaleModeByWeight, want: 100},
		{name: "negative clamps to zero", raw: -40, mode: domain.SaleModeByWeight, want: 0},
		{name: "no upper bound", raw: 125000, mode: domain.SaleModeByWeight, want: 125000},
		{name: "snap to nearest step", raw: 137, mode: domain.SaleModeByWeight, opts: []pricing.AmountOption{pricing.WithSnap(true)}, want: 150},
		{name: "snap rounds half up", raw: 125, mode: domain.SaleModeByWeight, opts: []pricing.AmountOption{pricing.WithSnap(true)}, want: 150},
		{name: "snap rounds down below half", raw: 124, mode: domain.SaleModeByWeight, opts: []pricing.AmountOption{pricing.WithSnap(true)}, want: 100},
		{name: "no snap keeps value", raw: 137, mode: domain.SaleModeByWeight, want: 137},
		{name: "unit snap to whole", raw: 2.4, mode: domain.SaleModeByUnit, opts: []pricing.AmountOption{pricing.WithSnap(true)}, want: 2},
		{name: "custom step", raw: 149, mode: domain.SaleModeByWeight, opts: []pricing.AmountOption{pricing.WithSnap(true), pricing.WithStep(100)}, want: 100},
		{name: "invalid step ignored", raw: 137, mode: domain.SaleModeByWeight, opts: []pricing.AmountOption{pricing.WithSnap(true), pricing.WithStep(-5)}, want: 150},
		{name: "custom fallback", raw: "x", mode: domain.SaleModeByWeight, opts: []pricing.AmountOption{pricing.WithFallback(250)}, want: 250},
		{name: "numeric string", raw: " 42.5 ", mode: domain.SaleModeByWeight, want: 42.5},
		{name: "json number", raw: json.Number("300"), mode: domain.SaleModeByWeight, want: 300},
		{name: "int64", raw: int64(7), mode: domain.SaleModeByUnit, want: 7},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := pricing.NormalizeAmount(tc.raw, tc.mode, tc.opts...)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeAmountNeverNegativeOrNaN(t *testing.T) {
	t.Parallel()

	inputs := []any{-1e9, "-3", math.Inf(-1), "NaN", "1e400", -0.0001}
	for _, raw := range inputs {
		for _, mode := range []domain.SaleMode{domain.SaleModeByWeight, domain.SaleModeByUnit} {
			got := pricing.NormalizeAmount(raw, mode, pricing.WithSnap(true))
			assert.False(t, math.IsNaN(got), "raw %v", raw)
			assert.GreaterOrEqual(t, got, 0.0, "raw %v", raw)
		}
	}
}

func TestFormatAmountLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount float64
		mode   domain.SaleMode
		want   string
	}{
		{amount: 150, mode: domain.SaleModeByWeight, want: "150g"},
		{amount: 999, mode: domain.SaleModeByWeight, want: "999g"},
		{amount: 1000, mode: domain.SaleModeByWeight, want: "1kg"},
		{amount: 1500, mode: domain.SaleModeByWeight, want: "1.5kg"},
		{amount: 2000, mode: domain.SaleModeByWeight, want: "2kg"},
		{amount: 1250, mode: domain.SaleModeByWeight, want: "1.25kg"},
		{amount: 1234, mode: domain.SaleModeByWeight, want: "1.23kg"},
		{amount: 999.999, mode: domain.SaleModeByWeight, want: "1kg"},
		{amount: 999.994, mode: domain.SaleModeByWeight, want: "999.99g"},
		{amount: 0, mode: domain.SaleModeByWeight, want: "0g"},
		{amount: 3, mode: domain.SaleModeByUnit, want: "3u"},
		{amount: -2, mode: domain.SaleModeByUnit, want: "0u"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, pricing.FormatAmountLabel(tc.amount, tc.mode), "amount %v", tc.amount)
	}
}

func TestAmountKeyKeepsExactAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1231g", pricing.AmountKey(1231, domain.SaleModeByWeight))
	assert.Equal(t, "1234g", pricing.AmountKey(1234, domain.SaleModeByWeight))
	assert.Equal(t, "1500.5g", pricing.AmountKey(1500.5, domain.SaleModeByWeight))
	assert.Equal(t, "3u", pricing.AmountKey(3, domain.SaleModeByUnit))
	assert.Equal(t, "0g", pricing.AmountKey(math.NaN(), domain.SaleModeByWeight))
	assert.NotEqual(t,
		pricing.AmountKey(1231, domain.SaleModeByWeight),
		pricing.AmountKey(1234, domain.SaleModeByWeight),
		"amounts sharing the 1.23kg label must keep distinct keys")
}
