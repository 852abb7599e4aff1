package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/repositories"
	"github.com/jwebchajari/Savia/internal/repositories/cartstore"
)

var cartNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCartService(t *testing.T, store repositories.CartStore, catalog *memoryCatalog, metrics CartMetrics) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Store:      store,
		Catalog:    catalog,
		Metrics:    metrics,
		Clock:      func() time.Time { return cartNow },
		SessionIDs: func() string { return "session-new" },
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func defaultCatalog() *memoryCatalog {
	hidden := unit("agotado", "Agotado", 100)
	hidden.Available = false
	return newMemoryCatalog(
		weighted("queso", "Queso", 4200),
		offered(weighted("dambo", "Dambo", 5000), 4000),
		unit("pan", "Pan", 1200),
		hidden,
	)
}

func TestCartAddItemSnapshotsPrice(t *testing.T) {
	catalog := defaultCatalog()
	svc := newTestCartService(t, cartstore.NewMemoryStore(func() time.Time { return cartNow }), catalog, nil)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, AddCartItemCommand{SessionID: "s1", ProductID: "dambo", Amount: 250})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Lines))
	}
	line := cart.Lines[0]
	if line.Key != "dambo@250g" || line.PackPrice != 1000 || line.DiscountPercent != 20 || line.Quantity != 1 {
		t.Fatalf("unexpected line: %+v", line)
	}
	if !cart.ExpiresAt.Equal(cartNow.Add(DefaultCartTTL)) || cart.Version != 1 {
		t.Fatalf("expected ttl refresh and version 1, got %v v%d", cart.ExpiresAt, cart.Version)
	}

	// A later price change does not touch the existing line.
	changed := catalog.products["dambo"]
	changed.OfferPrice.Valid = false
	catalog.products["dambo"] = changed

	cart, err = svc.AddItem(ctx, AddCartItemCommand{SessionID: "s1", ProductID: "dambo", Amount: "250"})
	if err != nil {
		t.Fatalf("AddItem again: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 || cart.Lines[0].PackPrice != 1000 {
		t.Fatalf("expected quantity bump on snapshot line, got %+v", cart.Lines)
	}
	if cart.Subtotal() != 2000 {
		t.Fatalf("expected subtotal 2000, got %d", cart.Subtotal())
	}
}

func TestCartAddItemRejections(t *testing.T) {
	svc := newTestCartService(t, cartstore.NewMemoryStore(nil), defaultCatalog(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  AddCartItemCommand
		want error
	}{
		{name: "missing session", cmd: AddCartItemCommand{ProductID: "pan", Amount: 1}, want: ErrCartInvalidInput},
		{name: "missing product", cmd: AddCartItemCommand{SessionID: "s1"}, want: ErrCartInvalidInput},
		{name: "unknown product", cmd: AddCartItemCommand{SessionID: "s1", ProductID: "nope", Amount: 1}, want: ErrCartProductNotFound},
		{name: "unavailable", cmd: AddCartItemCommand{SessionID: "s1", ProductID: "agotado", Amount: 1}, want: ErrCartItemNotPurchasable},
		{name: "zero amount", cmd: AddCartItemCommand{SessionID: "s1", ProductID: "queso", Amount: 0}, want: ErrCartItemNotPurchasable},
		{name: "zero unit after snap", cmd: AddCartItemCommand{SessionID: "s1", ProductID: "pan", Amount: 0.4}, want: ErrCartItemNotPurchasable},
	}
	for _, tc := range cases {
		if _, err := svc.AddItem(ctx, tc.cmd); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCartAddItemMalformedAmountUsesFallback(t *testing.T) {
	svc := newTestCartService(t, cartstore.NewMemoryStore(nil), defaultCatalog(), nil)

	cart, err := svc.AddItem(context.Background(), AddCartItemCommand{SessionID: "s1", ProductID: "queso", Amount: "abc"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if cart.Lines[0].AmountLabel != "100g" || cart.Lines[0].PackPrice != 420 {
		t.Fatalf("expected 100g fallback, got %+v", cart.Lines[0])
	}
}

func TestCartAddItemKeepsDistinctWeightsApart(t *testing.T) {
	svc := newTestCartService(t, cartstore.NewMemoryStore(nil), defaultCatalog(), nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, AddCartItemCommand{SessionID: "s1", ProductID: "queso", Amount: 1231}); err != nil {
		t.Fatalf("AddItem 1231: %v", err)
	}
	cart, err := svc.AddItem(ctx, AddCartItemCommand{SessionID: "s1", ProductID: "queso", Amount: 1234})
	if err != nil {
		t.Fatalf("AddItem 1234: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected two lines for distinct weights, got %+v", cart.Lines)
	}
	want := map[string]int64{"queso@1231g": 5170, "queso@1234g": 5183}
	for _, line := range cart.Lines {
		price, ok := want[line.Key]
		if !ok {
			t.Fatalf("unexpected line key %q", line.Key)
		}
		if line.AmountLabel != "1.23kg" || line.Quantity != 1 || line.PackPrice != price {
			t.Fatalf("unexpected line: %+v", line)
		}
	}
	if cart.Subtotal() != 10353 {
		t.Fatalf("expected subtotal 10353, got %d", cart.Subtotal())
	}
}

func TestCartIncrementDecrementRemove(t *testing.T) {
	metrics := &countingMetrics{}
	svc := newTestCartService(t, cartstore.NewMemoryStore(nil), defaultCatalog(), metrics)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, AddCartItemCommand{SessionID: "s1", ProductID: "pan", Amount: 3}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.IncrementItem(ctx, "s1", "pan@3u")
	if err != nil || cart.Lines[0].Quantity != 2 {
		t.Fatalf("IncrementItem: %v %+v", err, cart.Lines)
	}
	cart, err = svc.DecrementItem(ctx, "s1", "pan@3u")
	if err != nil || cart.Lines[0].Quantity != 1 {
		t.Fatalf("DecrementItem: %v %+v", err, cart.Lines)
	}
	cart, err = svc.DecrementItem(ctx, "s1", "pan@3u")
	if err != nil || len(cart.Lines) != 0 {
		t.Fatalf("expected line removed at zero: %v %+v", err, cart.Lines)
	}
	if _, err := svc.RemoveItem(ctx, "s1", "pan@3u"); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected not found for removed line, got %v", err)
	}
	if _, err := svc.IncrementItem(ctx, "s1", " "); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected invalid line key, got %v", err)
	}
	if metrics.mutations["add"] != 1 || metrics.mutations["decrement"] != 2 {
		t.Fatalf("unexpected metrics: %+v", metrics.mutations)
	}
}

func TestCartDeliveryMethodAndClear(t *testing.T) {
	svc := newTestCartService(t, cartstore.NewMemoryStore(nil), defaultCatalog(), nil)
	ctx := context.Background()

	cart, err := svc.SetDeliveryMethod(ctx, "s1", domain.DeliveryHome)
	if err != nil || cart.DeliveryMethod != domain.DeliveryHome {
		t.Fatalf("SetDeliveryMethod: %v %+v", err, cart)
	}
	if _, err := svc.SetDeliveryMethod(ctx, "s1", "drone"); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected invalid method, got %v", err)
	}
	if err := svc.ClearCart(ctx, "s1"); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	cart, err = svc.GetCart(ctx, "s1")
	if err != nil || cart.DeliveryMethod != domain.DeliveryPickup || cart.Version != 0 {
		t.Fatalf("expected fresh cart after clear: %v %+v", err, cart)
	}
	if svc.NewSessionID() != "session-new" {
		t.Fatal("expected injected session id generator")
	}
}

func TestCartConcurrentIncrementsAreNotLost(t *testing.T) {
	store := cartstore.NewMemoryStore(nil)
	svc, err := NewCartService(CartServiceDeps{
		Store:       store,
		Catalog:     defaultCatalog(),
		MaxAttempts: 100,
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, AddCartItemCommand{SessionID: "s1", ProductID: "pan", Amount: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.IncrementItem(ctx, "s1", "pan@1u"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("IncrementItem: %v", err)
	}

	cart, err := svc.GetCart(ctx, "s1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if cart.Lines[0].Quantity != workers+1 {
		t.Fatalf("expected %d, got %d", workers+1, cart.Lines[0].Quantity)
	}
}

type alwaysConflictStore struct {
	repositories.CartStore
	saves int
}

func (s *alwaysConflictStore) Save(context.Context, domain.Cart) (domain.Cart, error) {
	s.saves++
	return domain.Cart{}, repositories.ErrCartVersionConflict
}

func TestCartGivesUpAfterMaxAttempts(t *testing.T) {
	store := &alwaysConflictStore{CartStore: cartstore.NewMemoryStore(nil)}
	metrics := &countingMetrics{}
	svc := newTestCartService(t, store, defaultCatalog(), metrics)

	_, err := svc.SetDeliveryMethod(context.Background(), "s1", domain.DeliveryHome)
	if !errors.Is(err, ErrCartConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if store.saves != defaultCartMaxAttempts || metrics.conflicts != defaultCartMaxAttempts {
		t.Fatalf("expected %d attempts, got saves=%d conflicts=%d", defaultCartMaxAttempts, store.saves, metrics.conflicts)
	}
}
