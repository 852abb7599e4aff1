package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/textutil"
	"github.com/jwebchajari/Savia/internal/pricing"
	"github.com/jwebchajari/Savia/internal/repositories"
)

const (
	maxProductNameLength        = 120
	maxProductDescriptionLength = 2000
	maxCategoryLength           = 80
	maxImageURLLength           = 2048
	defaultRecommendedLimit     = 4
	maxRecommendedLimit         = 24
)

// CatalogEventPublisher announces product mutations.
type CatalogEventPublisher interface {
	PublishCatalogChange(ctx context.Context, change domain.CatalogChange) (string, error)
}

// CatalogMetrics records catalog reads.
type CatalogMetrics interface {
	CatalogRead(ctx context.Context, source string)
}

// CatalogServiceDeps wires the catalog service.
type CatalogServiceDeps struct {
	Repository  repositories.CatalogRepository
	Publisher   CatalogEventPublisher
	Metrics     CatalogMetrics
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
	Shuffle     func(n int, swap func(i, j int))
}

type catalogService struct {
	repo      repositories.CatalogRepository
	publisher CatalogEventPublisher
	metrics   CatalogMetrics
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
	newID     func() string
	shuffle   func(n int, swap func(i, j int))
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService constructs a CatalogService.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("catalog service: repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	shuffle := deps.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &catalogService{
		repo:      deps.Repository,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		now:       func() time.Time { return clock().UTC() },
		logger:    logger,
		newID:     newID,
		shuffle:   shuffle,
	}, nil
}

// ListProducts loads the whole catalog and filters in memory, sorted by name.
func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]ProductView, error) {
	products, err := s.load(ctx, "list")
	if err != nil {
		return nil, err
	}

	slug := textutil.Slugify(filter.CategorySlug)
	query := textutil.Fold(filter.Query)
	switch filter.Offer {
	case "", domain.OfferGeneral, domain.OfferWeekly:
	default:
		return nil, fmt.Errorf("%w: unknown offer %q", ErrCatalogInvalidInput, filter.Offer)
	}

	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		if !filter.IncludeUnavailable && !product.Available {
			continue
		}
		if slug != "" && product.CategorySlug != slug {
			continue
		}
		if filter.Offer == domain.OfferGeneral && !product.GeneralOffer {
			continue
		}
		if filter.Offer == domain.OfferWeekly && !product.WeeklyOffer {
			continue
		}
		if query != "" && !matchesQuery(product, query) {
			continue
		}
		views = append(views, viewOf(product))
	}
	sortViews(views)
	return views, nil
}

// GetProduct returns one product; unavailable products stay readable.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (ProductView, error) {
	product, err := s.get(ctx, productID)
	if err != nil {
		return ProductView{}, err
	}
	return viewOf(product), nil
}

// QuoteProduct prices the product at the normalized amount.
func (s *catalogService) QuoteProduct(ctx context.Context, cmd QuoteCommand) (ProductQuote, error) {
	product, err := s.get(ctx, cmd.ProductID)
	if err != nil {
		return ProductQuote{}, err
	}
	quote := pricing.QuoteProduct(product, cmd.Amount, amountOptions(product, cmd.Snap)...)
	return ProductQuote{
		ProductID:       product.ID,
		SaleMode:        product.SaleMode,
		Amount:          quote.Amount,
		AmountLabel:     quote.AmountLabel,
		UnitPrice:       quote.UnitPrice,
		DiscountPercent: quote.DiscountPercent,
		LineTotal:       quote.LineTotal,
		Purchasable:     product.Available && quote.Purchasable(),
	}, nil
}

// ListCategories groups available products by category slug.
func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	products, err := s.load(ctx, "categories")
	if err != nil {
		return nil, err
	}

	bySlug := make(map[string]*domain.Category)
	for _, product := range products {
		if !product.Available || product.CategorySlug == "" {
			continue
		}
		category, ok := bySlug[product.CategorySlug]
		if !ok {
			category = &domain.Category{
				ID:   product.CategoryID,
				Name: product.CategoryName,
				Slug: product.CategorySlug,
			}
			bySlug[product.CategorySlug] = category
		}
		category.ProductCount++
	}

	categories := make([]domain.Category, 0, len(bySlug))
	for _, category := range bySlug {
		categories = append(categories, *category)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := textutil.Fold(categories[i].Name), textutil.Fold(categories[j].Name)
		if a != b {
			return a < b
		}
		return categories[i].Slug < categories[j].Slug
	})
	return categories, nil
}

// Recommended returns up to limit random available products, skipping excluded ids.
func (s *catalogService) Recommended(ctx context.Context, limit int, exclude []string) ([]ProductView, error) {
	if limit <= 0 {
		limit = defaultRecommendedLimit
	}
	if limit > maxRecommendedLimit {
		limit = maxRecommendedLimit
	}
	products, err := s.load(ctx, "recommended")
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[strings.TrimSpace(id)] = struct{}{}
	}
	candidates := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if _, excluded := skip[product.ID]; excluded || !product.Available {
			continue
		}
		candidates = append(candidates, product)
	}
	s.shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	views := make([]ProductView, 0, len(candidates))
	for _, product := range candidates {
		views = append(views, viewOf(product))
	}
	return views, nil
}

// UpsertProduct validates and stores the product, then announces the change.
func (s *catalogService) UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (ProductView, error) {
	product, err := productFromCommand(cmd)
	if err != nil {
		return ProductView{}, err
	}

	now := s.now()
	product.UpdatedAt = now
	if product.ID == "" {
		product.ID = s.newID()
		product.CreatedAt = now
	} else {
		existing, err := s.get(ctx, product.ID)
		if err != nil {
			return ProductView{}, err
		}
		product.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return ProductView{}, s.translateRepoError(err)
	}
	s.announce(ctx, product.ID, domain.CatalogActionUpserted, cmd.ActorID)
	return viewOf(product), nil
}

// DeleteProduct removes the product, then announces the change.
func (s *catalogService) DeleteProduct(ctx context.Context, cmd DeleteProductCommand) error {
	id := strings.TrimSpace(cmd.ProductID)
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return s.translateRepoError(err)
	}
	s.announce(ctx, id, domain.CatalogActionDeleted, cmd.ActorID)
	return nil
}

func (s *catalogService) load(ctx context.Context, source string) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	if s.metrics != nil {
		s.metrics.CatalogRead(ctx, source)
	}
	return products, nil
}

func (s *catalogService) get(ctx context.Context, productID string) (domain.Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, s.translateRepoError(err)
	}
	if s.metrics != nil {
		s.metrics.CatalogRead(ctx, "get")
	}
	return product, nil
}

func (s *catalogService) announce(ctx context.Context, productID, action, actorID string) {
	if s.publisher == nil {
		return
	}
	change := domain.CatalogChange{ProductID: productID, Action: action, ActorID: actorID, OccurredAt: s.now()}
	if _, err := s.publisher.PublishCatalogChange(ctx, change); err != nil {
		s.logger(ctx, "catalog.publish_failed", map[string]any{"productId": productID, "action": action, "error": err})
	}
}

func (s *catalogService) translateRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCatalogProductNotFound
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCatalogInvalidInput, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
}

func productFromCommand(cmd UpsertProductCommand) (domain.Product, error) {
	name := clean(cmd.Name, maxProductNameLength)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	mode, ok := domain.ParseSaleMode(cmd.SaleMode)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: unknown sale mode %q", ErrCatalogInvalidInput, cmd.SaleMode)
	}
	if !cmd.BasePrice.IsPositive() {
		return domain.Product{}, fmt.Errorf("%w: base price must be greater than zero", ErrCatalogInvalidInput)
	}
	if cmd.OfferPrice.Valid {
		if !cmd.OfferPrice.Decimal.IsPositive() || !cmd.OfferPrice.Decimal.LessThan(cmd.BasePrice) {
			return domain.Product{}, fmt.Errorf("%w: offer price must be positive and below the base price", ErrCatalogInvalidInput)
		}
	}
	image := strings.TrimSpace(cmd.ImageURL)
	if len(image) > maxImageURLLength {
		return domain.Product{}, fmt.Errorf("%w: image url too long", ErrCatalogInvalidInput)
	}

	categoryName := clean(cmd.CategoryName, maxCategoryLength)
	categoryID := clean(cmd.CategoryID, maxCategoryLength)
	if categoryName == "" {
		categoryName = categoryID
	}
	slug := textutil.Slugify(categoryName)
	if categoryID == "" {
		categoryID = slug
	}

	available := true
	if cmd.Available != nil {
		available = *cmd.Available
	}

	return domain.Product{
		ID:           strings.TrimSpace(cmd.ProductID),
		Name:         name,
		Description:  clean(cmd.Description, maxProductDescriptionLength),
		CategoryID:   categoryID,
		CategoryName: categoryName,
		CategorySlug: slug,
		SaleMode:     mode,
		BasePrice:    cmd.BasePrice,
		OfferPrice:   cmd.OfferPrice,
		Available:    available,
		ImageURL:     image,
		GeneralOffer: cmd.GeneralOffer,
		WeeklyOffer:  cmd.WeeklyOffer,
	}, nil
}

func viewOf(product domain.Product) ProductView {
	quote := pricing.QuoteProduct(product, nil)
	return ProductView{
		Product:            product,
		EffectivePrice:     pricing.EffectiveUnitPrice(product),
		HasOffer:           pricing.HasValidOffer(product),
		DiscountPercent:    quote.DiscountPercent,
		DefaultAmount:      quote.Amount,
		DefaultAmountLabel: quote.AmountLabel,
		DefaultPrice:       quote.LineTotal,
	}
}

func matchesQuery(product domain.Product, folded string) bool {
	for _, field := range []string{product.Name, product.CategoryName, product.Description} {
		if strings.Contains(textutil.Fold(field), folded) {
			return true
		}
	}
	return false
}

func sortViews(views []ProductView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := textutil.Fold(views[i].Product.Name), textutil.Fold(views[j].Product.Name)
		if a != b {
			return a < b
		}
		return views[i].Product.ID < views[j].Product.ID
	})
}

// amountOptions snaps unit products to whole units regardless of the request flag.
func amountOptions(product domain.Product, snap bool) []pricing.AmountOption {
	if product.SaleMode == domain.SaleModeByUnit {
		return []pricing.AmountOption{pricing.WithSnap(true)}
	}
	return []pricing.AmountOption{pricing.WithSnap(snap)}
}

// clean strips markup and caps the rune length.
func clean(value string, limit int) string {
	value = strings.TrimSpace(textutil.StripMarkup(value))
	if limit > 0 {
		runes := []rune(value)
		if len(runes) > limit {
			value = strings.TrimSpace(string(runes[:limit]))
		}
	}
	return value
}
