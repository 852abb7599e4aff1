package services

import (
	"errors"

	"github.com/jwebchajari/Savia/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates a rejected product payload or query.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogProductNotFound indicates the product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogUnavailable indicates the catalog backend failed.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")

	// ErrStoreInvalidInput indicates a rejected store metadata payload.
	ErrStoreInvalidInput = errors.New("store service: invalid input")
	// ErrStoreUnavailable indicates the store backend failed.
	ErrStoreUnavailable = errors.New("store service: unavailable")

	// ErrCartInvalidInput indicates a bad session id, line key or delivery method.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartNotFound indicates the cart line does not exist.
	ErrCartNotFound = errors.New("cart service: not found")
	// ErrCartProductNotFound indicates the product being added does not exist.
	ErrCartProductNotFound = errors.New("cart service: product not found")
	// ErrCartItemNotPurchasable indicates an unavailable product or a zero line total.
	ErrCartItemNotPurchasable = errors.New("cart service: item not purchasable")
	// ErrCartConflict indicates concurrent writers kept winning until retries ran out.
	ErrCartConflict = errors.New("cart service: conflict")
	// ErrCartUnavailable indicates the cart store failed.
	ErrCartUnavailable = errors.New("cart service: unavailable")

	// ErrCheckoutInvalidInput indicates a bad order form.
	ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")
	// ErrCheckoutEmptyCart indicates checkout completion on an empty cart.
	ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")
	// ErrCheckoutUnavailable indicates a backend needed for checkout failed.
	ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

	// ErrCartVersionConflict is re-exported for handlers that inspect store errors.
	ErrCartVersionConflict = repositories.ErrCartVersionConflict
)

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
