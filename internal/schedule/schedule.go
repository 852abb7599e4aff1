// Package schedule evaluates the store's weekly opening hours.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jwebchajari/Savia/internal/domain"
)

// ErrInvalidClock reports a slot bound that is not a valid "HH:MM" time.
var ErrInvalidClock = errors.New("schedule: invalid clock")

const (
	minutesPerDay = 24 * 60
	lookaheadDays = 7
)

// ParseClock converts "HH:MM" into minutes after midnight. "24:00" is accepted as the
// end of the day.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	total := hours*60 + minutes
	if total > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return total, nil
}

// ValidateRange checks that both bounds parse and from is strictly before to.
func ValidateRange(r domain.TimeRange) error {
	from, err := ParseClock(r.From)
	if err != nil {
		return err
	}
	to, err := ParseClock(r.To)
	if err != nil {
		return err
	}
	if from >= to {
		return fmt.Errorf("%w: %s must be before %s", ErrInvalidClock, r.From, r.To)
	}
	return nil
}

type window struct {
	from int
	to   int
	slot domain.TimeRange
}

// DayFor returns the schedule of the day, falling back to the default slots for days
// missing from the data. Closed days have no slots.
func DayFor(weekly domain.WeeklySchedule, day domain.Weekday) domain.DaySchedule {
	schedule, ok := weekly[day]
	if !ok {
		return domain.DefaultDaySchedule()
	}
	if schedule.Closed {
		return domain.DaySchedule{Closed: true}
	}
	return schedule
}

func windowsFor(weekly domain.WeeklySchedule, day domain.Weekday) []window {
	schedule := DayFor(weekly, day)
	if schedule.Closed {
		return nil
	}
	windows := make([]window, 0, len(schedule.Slots))
	for _, slot := range schedule.Slots {
		if slot.IsZero() {
			continue
		}
		from, err := ParseClock(slot.From)
		if err != nil {
			continue
		}
		to, err := ParseClock(slot.To)
		if err != nil || from >= to {
			continue
		}
		windows = append(windows, window{from: from, to: to, slot: slot})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].from < windows[j].from })
	return windows
}

// Evaluate reports whether the store is open at now. The wall clock of now is used as
// is, so callers convert it to the store's location first. Slots are half-open.
func Evaluate(weekly domain.WeeklySchedule, now time.Time) domain.StoreStatus {
	today := domain.WeekdayOf(now.Weekday())
	minute := now.Hour()*60 + now.Minute()
	status := domain.StoreStatus{Day: today, EvaluatedAt: now}

	for _, w := range windowsFor(weekly, today) {
		if minute >= w.from && minute < w.to {
			slot := w.slot
			status.Open = true
			status.CurrentSlot = &slot
			return status
		}
	}

	year, month, day := now.Date()
	for offset := 0; offset <= lookaheadDays; offset++ {
		date := time.Date(year, month, day+offset, 0, 0, 0, 0, now.Location())
		for _, w := range windowsFor(weekly, domain.WeekdayOf(date.Weekday())) {
			if offset == 0 && w.from <= minute {
				continue
			}
			next := time.Date(year, month, day+offset, w.from/60, w.from%60, 0, 0, now.Location())
			status.NextOpening = &next
			return status
		}
	}
	return status
}
