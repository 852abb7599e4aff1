package repositories

import (
	"context"

	"github.com/jwebchajari/Savia/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogRepository reads and writes the product tree of the Realtime Database.
type CatalogRepository interface {
	// ListProducts returns every product whose record normalizes; broken records are skipped.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	SaveProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

// StoreRepository persists the store metadata document.
type StoreRepository interface {
	GetStoreInfo(ctx context.Context) (domain.StoreInfo, error)
	SaveStoreInfo(ctx context.Context, info domain.StoreInfo) error
}

// CartStore keeps one cart per session.
//
// Load never fails for missing, expired or undecodable carts; it returns an empty cart
// at version 0 instead. Save is a compare-and-set: it succeeds only when the stored
// version equals cart.Version (absent carts count as version 0), and returns the cart
// as stored with its version incremented. A lost race yields ErrCartVersionConflict.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// HealthRepository runs dependency probes for readiness endpoints.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
