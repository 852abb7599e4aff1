package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/services"
)

type productPayload struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description,omitempty"`
	CategoryID         string       `json:"categoryId,omitempty"`
	CategoryName       string       `json:"categoryName,omitempty"`
	CategorySlug       string       `json:"categorySlug,omitempty"`
	SaleMode           string       `json:"saleMode"`
	BasePrice          json.Number  `json:"basePrice"`
	OfferPrice         *json.Number `json:"offerPrice,omitempty"`
	EffectivePrice     json.Number  `json:"effectivePrice"`
	HasOffer           bool         `json:"hasOffer"`
	DiscountPercent    int          `json:"discountPercent"`
	Available          bool         `json:"available"`
	ImageURL           string       `json:"imageUrl,omitempty"`
	GeneralOffer       bool         `json:"generalOffer"`
	WeeklyOffer        bool         `json:"weeklyOffer"`
	DefaultAmount      float64      `json:"defaultAmount"`
	DefaultAmountLabel string       `json:"defaultAmountLabel"`
	DefaultPrice       int64        `json:"defaultPrice"`
	UpdatedAt          string       `json:"updatedAt,omitempty"`
}

func newProductPayload(view services.ProductView) productPayload {
	p := view.Product
	payload := productPayload{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		CategoryID:         p.CategoryID,
		CategoryName:       p.CategoryName,
		CategorySlug:       p.CategorySlug,
		SaleMode:           string(p.SaleMode),
		BasePrice:          decimalNumber(p.BasePrice),
		EffectivePrice:     decimalNumber(view.EffectivePrice),
		HasOffer:           view.HasOffer,
		DiscountPercent:    view.DiscountPercent,
		Available:          p.Available,
		ImageURL:           p.ImageURL,
		GeneralOffer:       p.GeneralOffer,
		WeeklyOffer:        p.WeeklyOffer,
		DefaultAmount:      view.DefaultAmount,
		DefaultAmountLabel: view.DefaultAmountLabel,
		DefaultPrice:       view.DefaultPrice,
		UpdatedAt:          formatTime(p.UpdatedAt),
	}
	if p.OfferPrice.Valid {
		offer := decimalNumber(p.OfferPrice.Decimal)
		payload.OfferPrice = &offer
	}
	return payload
}

func newProductPayloads(views []services.ProductView) []productPayload {
	out := make([]productPayload, 0, len(views))
	for _, view := range views {
		out = append(out, newProductPayload(view))
	}
	return out
}

type quotePayload struct {
	ProductID       string      `json:"productId"`
	SaleMode        string      `json:"saleMode"`
	Amount          float64     `json:"amount"`
	AmountLabel     string      `json:"amountLabel"`
	UnitPrice       json.Number `json:"unitPrice"`
	DiscountPercent int         `json:"discountPercent"`
	LineTotal       int64       `json:"lineTotal"`
	Purchasable     bool        `json:"purchasable"`
}

func newQuotePayload(q services.ProductQuote) quotePayload {
	return quotePayload{
		ProductID:       q.ProductID,
		SaleMode:        string(q.SaleMode),
		Amount:          q.Amount,
		AmountLabel:     q.AmountLabel,
		UnitPrice:       decimalNumber(q.UnitPrice),
		DiscountPercent: q.DiscountPercent,
		LineTotal:       q.LineTotal,
		Purchasable:     q.Purchasable,
	}
}

type categoryPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ProductCount int    `json:"productCount"`
}

type timeRangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type dayPayload struct {
	Closed bool               `json:"closed"`
	Slots  []timeRangePayload `json:"slots"`
}

type socialPayload struct {
	Instagram string `json:"instagram,omitempty"`
	WhatsApp  string `json:"whatsapp,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
	Email     string `json:"email,omitempty"`
}

type storePayload struct {
	Address      string                `json:"address"`
	DeliveryCost int64                 `json:"deliveryCost"`
	Social       socialPayload         `json:"social"`
	Hours        map[string]dayPayload `json:"hours"`
	UpdatedAt    string                `json:"updatedAt,omitempty"`
}

func newStorePayload(info domain.StoreInfo) storePayload {
	hours := make(map[string]dayPayload, len(info.Hours))
	for day, schedule := range info.Hours {
		slots := make([]timeRangePayload, 0, len(schedule.Slots))
		for _, slot := range schedule.Slots {
			slots = append(slots, timeRangePayload{From: slot.From, To: slot.To})
		}
		hours[string(day)] = dayPayload{Closed: schedule.Closed, Slots: slots}
	}
	return storePayload{
		Address:      info.Address,
		DeliveryCost: info.DeliveryCost,
		Social: socialPayload{
			Instagram: info.Social.Instagram,
			WhatsApp:  info.Social.WhatsApp,
			Facebook:  info.Social.Facebook,
			Telegram:  info.Social.Telegram,
			Email:     info.Social.Email,
		},
		Hours:     hours,
		UpdatedAt: formatTime(info.UpdatedAt),
	}
}

type storeStatusPayload struct {
	Day         string            `json:"day"`
	Open        bool              `json:"open"`
	CurrentSlot *timeRangePayload `json:"currentSlot,omitempty"`
	NextOpening string            `json:"nextOpening,omitempty"`
	EvaluatedAt string            `json:"evaluatedAt"`
}

func newStoreStatusPayload(status domain.StoreStatus) storeStatusPayload {
	payload := storeStatusPayload{
		Day:         string(status.Day),
		Open:        status.Open,
		EvaluatedAt: status.EvaluatedAt.Format(time.RFC3339),
	}
	if status.CurrentSlot != nil {
		payload.CurrentSlot = &timeRangePayload{From: status.CurrentSlot.From, To: status.CurrentSlot.To}
	}
	if status.NextOpening != nil {
		payload.NextOpening = status.NextOpening.Format(time.RFC3339)
	}
	return payload
}

type cartLinePayload struct {
	Key             string      `json:"key"`
	ProductID       string      `json:"productId"`
	Name            string      `json:"name"`
	SaleMode        string      `json:"saleMode"`
	Amount          float64     `json:"amount"`
	AmountLabel     string      `json:"amountLabel"`
	Quantity        int         `json:"quantity"`
	UnitPrice       json.Number `json:"unitPrice"`
	DiscountPercent int         `json:"discountPercent"`
	PackPrice       int64       `json:"packPrice"`
	LineTotal       int64       `json:"lineTotal"`
	ImageURL        string      `json:"imageUrl,omitempty"`
}

func newCartLinePayloads(lines []domain.CartLine) []cartLinePayload {
	out := make([]cartLinePayload, 0, len(lines))
	for _, line := range lines {
		out = append(out, cartLinePayload{
			Key:             line.Key,
			ProductID:       line.ProductID,
			Name:            line.Name,
			SaleMode:        string(line.SaleMode),
			Amount:          line.Amount,
			AmountLabel:     line.AmountLabel,
			Quantity:        line.Quantity,
			UnitPrice:       decimalNumber(line.UnitPriceUsed),
			DiscountPercent: line.DiscountPercent,
			PackPrice:       line.PackPrice,
			LineTotal:       line.LineTotal(),
			ImageURL:        line.ImageURL,
		})
	}
	return out
}

type cartPayload struct {
	SessionID      string            `json:"sessionId"`
	Lines          []cartLinePayload `json:"lines"`
	DeliveryMethod string            `json:"deliveryMethod"`
	ItemCount      int               `json:"itemCount"`
	Subtotal       int64             `json:"subtotal"`
	Version        int64             `json:"version"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
	ExpiresAt      string            `json:"expiresAt,omitempty"`
}

func newCartPayload(cart domain.Cart) cartPayload {
	method := cart.DeliveryMethod
	if !method.Valid() {
		method = domain.DeliveryPickup
	}
	return cartPayload{
		SessionID:      cart.SessionID,
		Lines:          newCartLinePayloads(cart.Lines),
		DeliveryMethod: string(method),
		ItemCount:      cart.ItemCount(),
		Subtotal:       cart.Subtotal(),
		Version:        cart.Version,
		UpdatedAt:      formatTime(cart.UpdatedAt),
		ExpiresAt:      formatTime(cart.ExpiresAt),
	}
}

type summaryPayload struct {
	Method     string            `json:"method"`
	Lines      []cartLinePayload `json:"lines"`
	ItemCount  int               `json:"itemCount"`
	Subtotal   int64             `json:"subtotal"`
	Shipping   int64             `json:"shipping"`
	GrandTotal int64             `json:"grandTotal"`
	Message    string            `json:"message"`
}

type checkoutPayload struct {
	Summary         summaryPayload `json:"summary"`
	DeliveryCost    int64          `json:"deliveryCost"`
	WhatsAppURL     string         `json:"whatsappUrl,omitempty"`
	CheckoutEnabled bool           `json:"checkoutEnabled"`
}

func newCheckoutPayload(preview services.CheckoutPreview) checkoutPayload {
	s := preview.Summary
	return checkoutPayload{
		Summary: summaryPayload{
			Method:     string(s.Method),
			Lines:      newCartLinePayloads(s.Lines),
			ItemCount:  s.ItemCount,
			Subtotal:   s.Subtotal,
			Shipping:   s.Shipping,
			GrandTotal: s.GrandTotal,
			Message:    s.Message,
		},
		DeliveryCost:    preview.DeliveryCost,
		WhatsAppURL:     preview.WhatsAppURL,
		CheckoutEnabled: preview.CheckoutEnabled,
	}
}

func decimalNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
