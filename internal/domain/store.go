package domain

import "time"

// Weekday is the storefront's day key, as stored in the schedule data.
type Weekday string

const (
	Monday    Weekday = "lunes"
	Tuesday   Weekday = "martes"
	Wednesday Weekday = "miércoles"
	Thursday  Weekday = "jueves"
	Friday    Weekday = "viernes"
	Saturday  Weekday = "sábado"
	Sunday    Weekday = "domingo"
)

// Weekdays lists the day keys from Monday to Sunday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf maps a time.Weekday to the storefront key.
func WeekdayOf(day time.Weekday) Weekday {
	switch day {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// TimeRange is a half-open opening slot expressed as "HH:MM" wall-clock strings.
type TimeRange struct {
	From string
	To   string
}

// IsZero reports whether both bounds are empty.
func (r TimeRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// DaySchedule lists the opening slots of one weekday.
type DaySchedule struct {
	Closed bool
	Slots  []TimeRange
}

// WeeklySchedule maps each weekday to its schedule.
type WeeklySchedule map[Weekday]DaySchedule

// SocialLinks are the store's contact handles.
type SocialLinks struct {
	Instagram string
	WhatsApp  string
	Facebook  string
	Telegram  string
	Email     string
}

// StoreInfo is the store metadata edited from the admin panel.
type StoreInfo struct {
	Address      string
	DeliveryCost int64
	Social       SocialLinks
	Hours        WeeklySchedule
	UpdatedAt    time.Time
}

// DefaultDaySchedule is used for days missing from stored data.
func DefaultDaySchedule() DaySchedule {
	return DaySchedule{
		Slots: []TimeRange{
			{From: "08:00", To: "12:00"},
			{From: "16:00", To: "20:00"},
		},
	}
}

// StoreStatus reports whether the store is open at a given instant.
type StoreStatus struct {
	Day         Weekday
	Open        bool
	CurrentSlot *TimeRange
	NextOpening *time.Time
	EvaluatedAt time.Time
}
