package rtdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/textutil"
)

// ErrInvalidRecord marks records that cannot become a usable product.
var ErrInvalidRecord = errors.New("rtdb: invalid product record")

// ProductFromRecord is the single place a raw product record becomes a domain.Product.
func ProductFromRecord(id string, raw map[string]any) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if raw == nil {
		return domain.Product{}, fmt.Errorf("%w: %s has no data", ErrInvalidRecord, id)
	}

	base, ok := numberField(raw["precio"])
	if !ok || base <= 0 {
		return domain.Product{}, fmt.Errorf("%w: %s has no positive precio", ErrInvalidRecord, id)
	}

	categoryName := firstNonEmpty(stringField(raw["categoriaNombre"]), stringField(raw["categoria"]))
	slug := firstNonEmpty(stringField(raw["categoriaSlug"]), textutil.Slugify(categoryName))

	product := domain.Product{
		ID:           id,
		Name:         stringField(raw["nombre"]),
		Description:  stringField(raw["descripcion"]),
		CategoryID:   firstNonEmpty(stringField(raw["categoria"]), slug),
		CategoryName: categoryName,
		CategorySlug: slug,
		SaleMode:     saleModeField(raw["tipoVenta"]),
		BasePrice:    decimal.NewFromFloat(base),
		Available:    true,
		ImageURL:     stringField(raw["imagen"]),
		GeneralOffer: boolField(raw["ofertaGeneral"]),
		WeeklyOffer:  boolField(raw["ofertaSemana"]),
		CreatedAt:    timeField(raw["createdAt"]),
		UpdatedAt:    timeField(raw["updatedAt"]),
	}
	if offer, ok := numberField(raw["precioOferta"]); ok {
		product.OfferPrice = decimal.NewNullDecimal(decimal.NewFromFloat(offer))
	}
	if available, ok := raw["disponible"].(bool); ok {
		product.Available = available
	}
	return product, nil
}

// ProductToRecord renders the product with the storefront's field names. A missing
// offer is written as nil so an Update removes the stored value.
func ProductToRecord(p domain.Product) map[string]any {
	record := map[string]any{
		"id":              p.ID,
		"nombre":          p.Name,
		"descripcion":     p.Description,
		"categoria":       p.CategoryID,
		"categoriaNombre": p.CategoryName,
		"categoriaSlug":   p.CategorySlug,
		"precio":          p.BasePrice.InexactFloat64(),
		"precioOferta":    nil,
		"imagen":          p.ImageURL,
		"disponible":      p.Available,
		"ofertaGeneral":   p.GeneralOffer,
		"ofertaSemana":    p.WeeklyOffer,
		"tipoVenta":       "kg",
	}
	if p.SaleMode == domain.SaleModeByUnit {
		record["tipoVenta"] = "u"
	}
	if p.OfferPrice.Valid {
		record["precioOferta"] = p.OfferPrice.Decimal.InexactFloat64()
	}
	if !p.CreatedAt.IsZero() {
		record["createdAt"] = p.CreatedAt.UnixMilli()
	}
	if !p.UpdatedAt.IsZero() {
		record["updatedAt"] = p.UpdatedAt.UnixMilli()
	}
	return record
}

// StoreFromRecord normalizes the store document; every day missing from the data
// gets the default schedule.
func StoreFromRecord(raw map[string]any) domain.StoreInfo {
	info := domain.StoreInfo{
		Address: stringField(raw["direccion"]),
		Hours:   make(domain.WeeklySchedule, len(domain.Weekdays)),
	}
	if cost, ok := numberField(raw["delivery"]); ok && cost > 0 {
		info.DeliveryCost = int64(math.Round(cost))
	}
	if social, ok := raw["redes"].(map[string]any); ok {
		info.Social = domain.SocialLinks{
			Instagram: stringField(social["instagram"]),
			WhatsApp:  stringField(social["whatsapp"]),
			Facebook:  stringField(social["facebook"]),
			Telegram:  stringField(social["telegram"]),
			Email:     stringField(social["email"]),
		}
	}

	hours, _ := raw["horarios"].(map[string]any)
	for _, day := range domain.Weekdays {
		dayRaw, ok := hours[string(day)].(map[string]any)
		if !ok {
			info.Hours[day] = domain.DefaultDaySchedule()
			continue
		}
		defaults := domain.DefaultDaySchedule()
		schedule := domain.DaySchedule{Closed: boolField(dayRaw["cerrado"])}
		for i, key := range []string{"franja1", "franja2"} {
			slot, present := slotField(dayRaw[key])
			if !present {
				slot = defaults.Slots[i]
			}
			if !slot.IsZero() {
				schedule.Slots = append(schedule.Slots, slot)
			}
		}
		if schedule.Closed {
			schedule.Slots = nil
		}
		info.Hours[day] = schedule
	}
	info.UpdatedAt = timeField(raw["updatedAt"])
	return info
}

// StoreToRecord renders the store document in the storefront layout.
func StoreToRecord(info domain.StoreInfo) map[string]any {
	hours := make(map[string]any, len(domain.Weekdays))
	for _, day := range domain.Weekdays {
		schedule, ok := info.Hours[day]
		if !ok {
			schedule = domain.DefaultDaySchedule()
		}
		entry := map[string]any{"cerrado": schedule.Closed}
		for i, key := range []string{"franja1", "franja2"} {
			slot := domain.TimeRange{}
			if i < len(schedule.Slots) {
				slot = schedule.Slots[i]
			}
			entry[key] = map[string]any{"desde": slot.From, "hasta": slot.To}
		}
		hours[string(day)] = entry
	}
	record := map[string]any{
		"direccion": info.Address,
		"delivery":  info.DeliveryCost,
		"redes": map[string]any{
			"instagram": info.Social.Instagram,
			"whatsapp":  info.Social.WhatsApp,
			"facebook":  info.Social.Facebook,
			"telegram":  info.Social.Telegram,
			"email":     info.Social.Email,
		},
		"horarios": hours,
	}
	if !info.UpdatedAt.IsZero() {
		record["updatedAt"] = info.UpdatedAt.UnixMilli()
	}
	return record
}

// numberField accepts numbers and numeric strings; non-finite values count as missing.
func numberField(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func boolField(v any) bool {
	b, _ := v.(bool)
	return b
}

// saleModeField treats "u" and "unidad" (any case) as per-unit; everything else is per-kilo.
func saleModeField(v any) domain.SaleMode {
	switch strings.ToLower(stringField(v)) {
	case "u", "unidad":
		return domain.SaleModeByUnit
	default:
		return domain.SaleModeByWeight
	}
}

// slotField reports present=false when the slot key is absent, so defaults apply.
func slotField(v any) (domain.TimeRange, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return domain.TimeRange{}, v != nil
	}
	return domain.TimeRange{From: stringField(m["desde"]), To: stringField(m["hasta"])}, true
}

// timeField reads epoch milliseconds.
func timeField(v any) time.Time {
	ms, ok := numberField(v)
	if !ok || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
