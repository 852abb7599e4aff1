package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/services"
)

type stubCatalogService struct {
	views    []services.ProductView
	view     services.ProductView
	quote    services.ProductQuote
	cats     []domain.Category
	err      error
	filter   domain.ProductFilter
	quoteCmd services.QuoteCommand
	limit    int
	exclude  []string
	upserts  []services.UpsertProductCommand
	deletes  []services.DeleteProductCommand
}

func (s *stubCatalogService) ListProducts(_ context.Context, filter domain.ProductFilter) ([]services.ProductView, error) {
	s.filter = filter
	return s.views, s.err
}

func (s *stubCatalogService) GetProduct(context.Context, string) (services.ProductView, error) {
	return s.view, s.err
}

func (s *stubCatalogService) QuoteProduct(_ context.Context, cmd services.QuoteCommand) (services.ProductQuote, error) {
	s.quoteCmd = cmd
	return s.quote, s.err
}

func (s *stubCatalogService) ListCategories(context.Context) ([]domain.Category, error) {
	return s.cats, s.err
}

func (s *stubCatalogService) Recommended(_ context.Context, limit int, exclude []string) ([]services.ProductView, error) {
	s.limit, s.exclude = limit, exclude
	return s.views, s.err
}

func (s *stubCatalogService) UpsertProduct(_ context.Context, cmd services.UpsertProductCommand) (services.ProductView, error) {
	s.upserts = append(s.upserts, cmd)
	if s.err != nil {
		return services.ProductView{}, s.err
	}
	id := cmd.ProductID
	if id == "" {
		id = "01HNEW"
	}
	return services.ProductView{Product: domain.Product{ID: id, Name: cmd.Name, BasePrice: cmd.BasePrice}, EffectivePrice: cmd.BasePrice}, nil
}

func (s *stubCatalogService) DeleteProduct(_ context.Context, cmd services.DeleteProductCommand) error {
	s.deletes = append(s.deletes, cmd)
	return s.err
}

type stubStoreService struct {
	info    domain.StoreInfo
	status  domain.StoreStatus
	err     error
	now     time.Time
	updates []services.UpdateStoreInfoCommand
}

func (s *stubStoreService) GetStoreInfo(context.Context) (domain.StoreInfo, error) {
	return s.info, s.err
}

func (s *stubStoreService) OpenStatus(_ context.Context, now time.Time) (domain.StoreStatus, error) {
	s.now = now
	return s.status, s.err
}

func (s *stubStoreService) UpdateStoreInfo(_ context.Context, cmd services.UpdateStoreInfoCommand) (domain.StoreInfo, error) {
	s.updates = append(s.updates, cmd)
	if s.err != nil {
		return domain.StoreInfo{}, s.err
	}
	return domain.StoreInfo{Address: cmd.Address, DeliveryCost: cmd.DeliveryCost, Hours: cmd.Hours}, nil
}

type cartCall struct {
	op        string
	sessionID string
	lineKey   string
	add       services.AddCartItemCommand
	method    domain.DeliveryMethod
}

type stubCartService struct {
	cart  domain.Cart
	err   error
	calls []cartCall
	ids   int
}

func (s *stubCartService) NewSessionID() string {
	s.ids++
	return "minted-session"
}

func (s *stubCartService) record(call cartCall) (domain.Cart, error) {
	s.calls = append(s.calls, call)
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	cart := s.cart
	cart.SessionID = call.sessionID
	return cart, nil
}

func (s *stubCartService) GetCart(_ context.Context, sessionID string) (domain.Cart, error) {
	return s.record(cartCall{op: "get", sessionID: sessionID})
}

func (s *stubCartService) AddItem(_ context.Context, cmd services.AddCartItemCommand) (domain.Cart, error) {
	return s.record(cartCall{op: "add", sessionID: cmd.SessionID, add: cmd})
}

func (s *stubCartService) IncrementItem(_ context.Context, sessionID, lineKey string) (domain.Cart, error) {
	return s.record(cartCall{op: "increment", sessionID: sessionID, lineKey: lineKey})
}

func (s *stubCartService) DecrementItem(_ context.Context, sessionID, lineKey string) (domain.Cart, error) {
	return s.record(cartCall{op: "decrement", sessionID: sessionID, lineKey: lineKey})
}

func (s *stubCartService) RemoveItem(_ context.Context, sessionID, lineKey string) (domain.Cart, error) {
	return s.record(cartCall{op: "remove", sessionID: sessionID, lineKey: lineKey})
}

func (s *stubCartService) SetDeliveryMethod(_ context.Context, sessionID string, method domain.DeliveryMethod) (domain.Cart, error) {
	return s.record(cartCall{op: "delivery", sessionID: sessionID, method: method})
}

func (s *stubCartService) ClearCart(_ context.Context, sessionID string) error {
	_, err := s.record(cartCall{op: "clear", sessionID: sessionID})
	return err
}

type stubCheckoutService struct {
	preview   services.CheckoutPreview
	err       error
	cmd       services.CheckoutCommand
	completed bool
}

func (s *stubCheckoutService) PreviewOrder(_ context.Context, cmd services.CheckoutCommand) (services.CheckoutPreview, error) {
	s.cmd = cmd
	return s.preview, s.err
}

func (s *stubCheckoutService) CompleteCheckout(_ context.Context, cmd services.CheckoutCommand) (services.CheckoutPreview, error) {
	s.cmd = cmd
	s.completed = true
	return s.preview, s.err
}

type stubSystemService struct {
	report domain.SystemHealthReport
	err    error
}

func (s *stubSystemService) HealthReport(context.Context) (domain.SystemHealthReport, error) {
	return s.report, s.err
}

func sampleView(id, name string, price int64) services.ProductView {
	base := decimal.NewFromInt(price)
	return services.ProductView{
		Product: domain.Product{
			ID:        id,
			Name:      name,
			SaleMode:  domain.SaleModeByWeight,
			BasePrice: base,
			Available: true,
		},
		EffectivePrice:     base,
		DefaultAmount:      100,
		DefaultAmountLabel: "100g",
		DefaultPrice:       price / 10,
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return body
}
