package rtdb

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/repositories"
)

// Logger receives warnings about skipped records.
type Logger func(ctx context.Context, event string, fields map[string]any)

// CatalogRepository stores products under a single Realtime Database path.
type CatalogRepository struct {
	db     Database
	root   string
	logger Logger
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository builds a repository rooted at productsPath ("products" by default).
func NewCatalogRepository(database Database, productsPath string, logger Logger) (*CatalogRepository, error) {
	if database == nil {
		return nil, errors.New("rtdb catalog repository: database is required")
	}
	root := strings.Trim(strings.TrimSpace(productsPath), "/")
	if root == "" {
		root = "products"
	}
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &CatalogRepository{db: database, root: root, logger: logger}, nil
}

// ListProducts reads the whole product tree and normalizes each record, ordered by id.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var raw map[string]any
	if err := r.db.Ref(r.root).Get(ctx, &raw); err != nil {
		return nil, repositories.NewError("products.list", repositories.KindUnavailable, err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		record, _ := raw[id].(map[string]any)
		product, err := ProductFromRecord(id, record)
		if err != nil {
			r.logger(ctx, "catalog.record_skipped", map[string]any{"productId": id, "error": err})
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

// GetProduct loads one product.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if !validKey(productID) {
		return domain.Product{}, repositories.NotFound("products.get", "product "+productID)
	}
	var raw map[string]any
	if err := r.db.Ref(path.Join(r.root, productID)).Get(ctx, &raw); err != nil {
		return domain.Product{}, repositories.NewError("products.get", repositories.KindUnavailable, err)
	}
	if raw == nil {
		return domain.Product{}, repositories.NotFound("products.get", "product "+productID)
	}
	product, err := ProductFromRecord(productID, raw)
	if err != nil {
		return domain.Product{}, repositories.NewError("products.get", repositories.KindUnknown, err)
	}
	return product, nil
}

// SaveProduct merges the product record, keeping fields this service does not manage.
func (r *CatalogRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	if !validKey(product.ID) {
		return repositories.NewError("products.save", repositories.KindUnknown, errors.New("invalid product id"))
	}
	if err := r.db.Ref(path.Join(r.root, product.ID)).Update(ctx, ProductToRecord(product)); err != nil {
		return repositories.NewError("products.save", repositories.KindUnavailable, err)
	}
	return nil
}

// DeleteProduct removes the product, failing with not found when it does not exist.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, productID string) error {
	if _, err := r.GetProduct(ctx, productID); err != nil {
		return err
	}
	if err := r.db.Ref(path.Join(r.root, productID)).Delete(ctx); err != nil {
		return repositories.NewError("products.delete", repositories.KindUnavailable, err)
	}
	return nil
}

// validKey rejects ids the database would interpret as paths or reject outright.
func validKey(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/.#$[]")
}
