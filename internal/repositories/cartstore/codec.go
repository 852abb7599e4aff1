package cartstore

import (
	"encoding/json"
	"time"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/repositories"
)

// Clock returns the current time; stores compare it with Cart.ExpiresAt.
type Clock func() time.Time

func encodeCart(cart domain.Cart) ([]byte, error) {
	return json.Marshal(cart)
}

// decodeCart returns ok=false for corrupt payloads; callers treat them as empty carts.
func decodeCart(data []byte) (domain.Cart, bool) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, false
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return cart, true
}

// liveVersion is the version a writer must present: 0 when nothing live is stored.
func liveVersion(stored domain.Cart, found bool, now time.Time) int64 {
	if !found || stored.Expired(now) {
		return 0
	}
	return stored.Version
}

// nextRevision checks the compare-and-set precondition and returns the cart to persist.
func nextRevision(cart domain.Cart, current int64) (domain.Cart, error) {
	if cart.Version != current {
		return domain.Cart{}, repositories.ErrCartVersionConflict
	}
	next := cart.Clone()
	next.Version = current + 1
	if next.Lines == nil {
		next.Lines = []domain.CartLine{}
	}
	return next, nil
}

func orNow(clock Clock) Clock {
	if clock == nil {
		return time.Now
	}
	return clock
}
