package pricing

import (
	"strconv"
	"strings"

	"github.com/jwebchajari/Savia/internal/domain"
)

// MessageTemplate holds the fixed labels of the order message.
type MessageTemplate struct {
	Header          string
	MethodLabel     string
	MethodHome      string
	MethodPickup    string
	AddressLabel    string
	AddressMissing  string
	NotesLabel      string
	ProductsHeading string
	LineBullet      string
	SubtotalLabel   string
	ShippingLabel   string
	TotalLabel      string
}

// DefaultMessageTemplate reproduces the storefront's WhatsApp order text.
func DefaultMessageTemplate() MessageTemplate {
	return MessageTemplate{
		Header:          "🛒 *Nuevo pedido desde Savia*",
		MethodLabel:     "*Método de entrega:*",
		MethodHome:      "Envío a domicilio",
		MethodPickup:    "Retiro en el local",
		AddressLabel:    "📍 *Dirección:*",
		AddressMissing:  "No indicada",
		NotesLabel:      "📝 *Notas:*",
		ProductsHeading: "*Productos:*",
		LineBullet:      "•",
		SubtotalLabel:   "Subtotal:",
		ShippingLabel:   "Envío:",
		TotalLabel:      "TOTAL:",
	}
}

// SummaryInput is everything the builder needs. Address is only rendered for home
// delivery.
type SummaryInput struct {
	Lines    []domain.CartLine
	Delivery domain.DeliveryContext
	Address  string
	Notes    string
}

// Builder aggregates cart lines into an order summary and message.
type Builder struct {
	money    CurrencyFormatter
	template MessageTemplate
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithCurrencyFormatter replaces the es-AR formatter.
func WithCurrencyFormatter(formatter CurrencyFormatter) BuilderOption {
	return func(b *Builder) {
		if formatter != nil {
			b.money = formatter
		}
	}
}

// WithMessageTemplate replaces the default labels.
func WithMessageTemplate(template MessageTemplate) BuilderOption {
	return func(b *Builder) {
		b.template = template
	}
}

// NewBuilder constructs a summary builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		money:    NewMoneyFormatter(DefaultLocale, DefaultCurrencySymbol),
		template: DefaultMessageTemplate(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build computes totals and renders the message. Empty carts are valid input.
func (b *Builder) Build(input SummaryInput) domain.OrderSummary {
	method := input.Delivery.Method
	if !method.Valid() {
		method = domain.DeliveryPickup
	}

	var subtotal int64
	items := 0
	lines := make([]domain.CartLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		subtotal += line.LineTotal()
		if line.Quantity > 0 {
			items += line.Quantity
		}
		lines = append(lines, line)
	}

	var shipping int64
	if method == domain.DeliveryHome && input.Delivery.Cost > 0 {
		shipping = input.Delivery.Cost
	}

	summary := domain.OrderSummary{
		Method:     method,
		Lines:      lines,
		ItemCount:  items,
		Subtotal:   subtotal,
		Shipping:   shipping,
		GrandTotal: subtotal + shipping,
	}
	summary.Message = b.render(summary, input.Address, input.Notes)
	return summary
}

func (b *Builder) render(summary domain.OrderSummary, address, notes string) string {
	t := b.template
	home := summary.Method == domain.DeliveryHome

	var sb strings.Builder
	sb.WriteString(t.Header)
	sb.WriteString("\n\n")

	methodName := t.MethodPickup
	if home {
		methodName = t.MethodHome
	}
	sb.WriteString(t.MethodLabel + " " + methodName + "\n")

	if home {
		address = strings.TrimSpace(address)
		if address == "" {
			address = t.AddressMissing
		}
		sb.WriteString(t.AddressLabel + " " + address + "\n")
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		sb.WriteString(t.NotesLabel + " " + notes + "\n")
	}

	sb.WriteString("\n" + t.ProductsHeading + "\n")
	for _, line := range summary.Lines {
		sb.WriteString(b.renderLine(line))
		sb.WriteString("\n")
	}

	sb.WriteString("\n" + t.SubtotalLabel + " " + b.money.FormatWithSymbol(summary.Subtotal))
	if home {
		sb.WriteString("\n" + t.ShippingLabel + " " + b.money.FormatWithSymbol(summary.Shipping))
	}
	sb.WriteString("\n\n*" + t.TotalLabel + " " + b.money.FormatWithSymbol(summary.GrandTotal) + "*\n")
	return sb.String()
}

func (b *Builder) renderLine(line domain.CartLine) string {
	var sb strings.Builder
	sb.WriteString(b.template.LineBullet)
	sb.WriteString(" ")
	sb.WriteString(line.Name)
	if label := strings.TrimSpace(line.AmountLabel); label != "" {
		sb.WriteString(" (" + label + ")")
	}
	sb.WriteString(" x" + strconv.Itoa(line.Quantity))
	sb.WriteString(" — ")
	sb.WriteString(b.money.FormatWithSymbol(line.LineTotal()))
	return sb.String()
}
