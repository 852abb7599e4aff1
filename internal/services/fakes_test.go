package services

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/repositories"
)

type memoryCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product
	listErr  error
	saveErr  error
}

func newMemoryCatalog(products ...domain.Product) *memoryCatalog {
	c := &memoryCatalog{products: make(map[string]domain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memoryCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memoryCatalog) GetProduct(_ context.Context, id string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, repositories.NotFound("products.get", id)
	}
	return p, nil
}

func (c *memoryCatalog) SaveProduct(_ context.Context, p domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.products[p.ID] = p
	return nil
}

func (c *memoryCatalog) DeleteProduct(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[id]; !ok {
		return repositories.NotFound("products.delete", id)
	}
	delete(c.products, id)
	return nil
}

type memoryStoreInfo struct {
	info  domain.StoreInfo
	err   error
	saved []domain.StoreInfo
}

func (s *memoryStoreInfo) GetStoreInfo(context.Context) (domain.StoreInfo, error) {
	return s.info, s.err
}

func (s *memoryStoreInfo) SaveStoreInfo(_ context.Context, info domain.StoreInfo) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, info)
	s.info = info
	return nil
}

type recordingPublisher struct {
	changes []domain.CatalogChange
	err     error
}

func (p *recordingPublisher) PublishCatalogChange(_ context.Context, change domain.CatalogChange) (string, error) {
	p.changes = append(p.changes, change)
	return "msg-1", p.err
}

type countingMetrics struct {
	mu        sync.Mutex
	mutations map[string]int
	conflicts int
	summaries int
	reads     int
}

func (m *countingMetrics) CartMutated(_ context.Context, op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutations == nil {
		m.mutations = map[string]int{}
	}
	m.mutations[op]++
}

func (m *countingMetrics) CartConflict(context.Context, string) {
	m.mu.Lock()
	m.conflicts++
	m.mu.Unlock()
}

func (m *countingMetrics) SummaryBuilt(context.Context, string, int64) {
	m.mu.Lock()
	m.summaries++
	m.mu.Unlock()
}

func (m *countingMetrics) CatalogRead(context.Context, string) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()
}

func weighted(id, name string, base int64) domain.Product {
	return domain.Product{
		ID:           id,
		Name:         name,
		CategoryID:   "quesos",
		CategoryName: "Quesos",
		CategorySlug: "quesos",
		SaleMode:     domain.SaleModeByWeight,
		BasePrice:    decimal.NewFromInt(base),
		Available:    true,
	}
}

func unit(id, name string, base int64) domain.Product {
	return domain.Product{
		ID:           id,
		Name:         name,
		CategoryID:   "panaderia",
		CategoryName: "Panadería",
		CategorySlug: "panaderia",
		SaleMode:     domain.SaleModeByUnit,
		BasePrice:    decimal.NewFromInt(base),
		Available:    true,
	}
}

func offered(p domain.Product, offer int64) domain.Product {
	p.OfferPrice = decimal.NewNullDecimal(decimal.NewFromInt(offer))
	return p
}
