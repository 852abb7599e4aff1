package pricing

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultLocale is the storefront's display locale.
	DefaultLocale = "es-AR"
	// DefaultCurrencySymbol prefixes formatted prices.
	DefaultCurrencySymbol = "$"
)

// CurrencyFormatter renders whole currency amounts for messages.
type CurrencyFormatter interface {
	FormatWithSymbol(amount int64) string
}

// MoneyFormatter groups thousands per locale and never prints decimals.
type MoneyFormatter struct {
	tag     language.Tag
	printer *message.Printer
	symbol  string
}

// NewMoneyFormatter builds a formatter, falling back to es-AR and "$" for empty or
// unparseable input.
func NewMoneyFormatter(locale, symbol string) *MoneyFormatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || strings.TrimSpace(locale) == "" {
		tag = language.MustParse(DefaultLocale)
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return &MoneyFormatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}
}

// Locale returns the resolved language tag.
func (f *MoneyFormatter) Locale() language.Tag {
	return f.tag
}

// Symbol returns the currency symbol.
func (f *MoneyFormatter) Symbol() string {
	return f.symbol
}

// Format returns the grouped amount without symbol.
func (f *MoneyFormatter) Format(amount int64) string {
	return f.printer.Sprintf("%v", amount)
}

// FormatWithSymbol returns the grouped amount prefixed with the currency symbol.
func (f *MoneyFormatter) FormatWithSymbol(amount int64) string {
	if amount < 0 {
		return "-" + f.symbol + f.Format(-amount)
	}
	return f.symbol + f.Format(amount)
}
