package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/repositories"
	"github.com/jwebchajari/Savia/internal/schedule"
)

const (
	defaultStoreTimeZone = "America/Argentina/Buenos_Aires"
	maxAddressLength     = 200
	maxSocialLength      = 200
	maxSlotsPerDay       = 2
)

// StoreServiceDeps wires the store service.
type StoreServiceDeps struct {
	Repository repositories.StoreRepository
	Location   *time.Location
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type storeService struct {
	repo     repositories.StoreRepository
	location *time.Location
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
}

var _ StoreService = (*storeService)(nil)

// NewStoreService constructs a StoreService. Without a location the Buenos Aires zone
// is used, falling back to UTC when tzdata is missing.
func NewStoreService(deps StoreServiceDeps) (StoreService, error) {
	if deps.Repository == nil {
		return nil, errors.New("store service: repository is required")
	}
	location := deps.Location
	if location == nil {
		loaded, err := time.LoadLocation(defaultStoreTimeZone)
		if err != nil {
			loaded = time.UTC
		}
		location = loaded
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &storeService{repo: deps.Repository, location: location, now: clock, logger: logger}, nil
}

func (s *storeService) GetStoreInfo(ctx context.Context) (domain.StoreInfo, error) {
	info, err := s.repo.GetStoreInfo(ctx)
	if err != nil {
		return domain.StoreInfo{}, translateStoreError(err)
	}
	return info, nil
}

// OpenStatus evaluates the schedule at now in the store's time zone; a zero now means
// the current time.
func (s *storeService) OpenStatus(ctx context.Context, now time.Time) (domain.StoreStatus, error) {
	info, err := s.GetStoreInfo(ctx)
	if err != nil {
		return domain.StoreStatus{}, err
	}
	if now.IsZero() {
		now = s.now()
	}
	return schedule.Evaluate(info.Hours, now.In(s.location)), nil
}

// UpdateStoreInfo validates and replaces the store metadata. Days missing from the
// command keep the default schedule.
func (s *storeService) UpdateStoreInfo(ctx context.Context, cmd UpdateStoreInfoCommand) (domain.StoreInfo, error) {
	info, err := storeInfoFromCommand(cmd)
	if err != nil {
		return domain.StoreInfo{}, err
	}
	info.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveStoreInfo(ctx, info); err != nil {
		return domain.StoreInfo{}, translateStoreError(err)
	}
	s.logger(ctx, "store.updated", map[string]any{"actorId": cmd.ActorID, "deliveryCost": info.DeliveryCost})
	return info, nil
}

func storeInfoFromCommand(cmd UpdateStoreInfoCommand) (domain.StoreInfo, error) {
	if cmd.DeliveryCost < 0 {
		return domain.StoreInfo{}, fmt.Errorf("%w: delivery cost must not be negative", ErrStoreInvalidInput)
	}

	social := domain.SocialLinks{
		Instagram: clean(cmd.Social.Instagram, maxSocialLength),
		WhatsApp:  clean(cmd.Social.WhatsApp, maxSocialLength),
		Facebook:  clean(cmd.Social.Facebook, maxSocialLength),
		Telegram:  clean(cmd.Social.Telegram, maxSocialLength),
		Email:     clean(cmd.Social.Email, maxSocialLength),
	}
	if social.Email != "" {
		if _, err := mail.ParseAddress(social.Email); err != nil {
			return domain.StoreInfo{}, fmt.Errorf("%w: invalid email %q", ErrStoreInvalidInput, social.Email)
		}
	}

	known := make(map[domain.Weekday]struct{}, len(domain.Weekdays))
	for _, day := range domain.Weekdays {
		known[day] = struct{}{}
	}

	hours := make(domain.WeeklySchedule, len(domain.Weekdays))
	for day, daySchedule := range cmd.Hours {
		if _, ok := known[day]; !ok {
			return domain.StoreInfo{}, fmt.Errorf("%w: unknown day %q", ErrStoreInvalidInput, day)
		}
		normalized, err := normalizeDay(day, daySchedule)
		if err != nil {
			return domain.StoreInfo{}, err
		}
		hours[day] = normalized
	}
	for _, day := range domain.Weekdays {
		if _, ok := hours[day]; !ok {
			hours[day] = domain.DefaultDaySchedule()
		}
	}

	return domain.StoreInfo{
		Address:      clean(cmd.Address, maxAddressLength),
		DeliveryCost: cmd.DeliveryCost,
		Social:       social,
		Hours:        hours,
	}, nil
}

func normalizeDay(day domain.Weekday, in domain.DaySchedule) (domain.DaySchedule, error) {
	if in.Closed {
		return domain.DaySchedule{Closed: true}, nil
	}
	out := domain.DaySchedule{}
	for _, slot := range in.Slots {
		slot = domain.TimeRange{From: strings.TrimSpace(slot.From), To: strings.TrimSpace(slot.To)}
		if slot.IsZero() {
			continue
		}
		if err := schedule.ValidateRange(slot); err != nil {
			return domain.DaySchedule{}, fmt.Errorf("%w: %s: %v", ErrStoreInvalidInput, day, err)
		}
		out.Slots = append(out.Slots, slot)
	}
	if len(out.Slots) > maxSlotsPerDay {
		return domain.DaySchedule{}, fmt.Errorf("%w: %s: at most %d slots per day", ErrStoreInvalidInput, day, maxSlotsPerDay)
	}
	return out, nil
}

func translateStoreError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
