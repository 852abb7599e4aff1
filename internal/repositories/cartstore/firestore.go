package cartstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jwebchajari/Savia/internal/domain"
	pfirestore "github.com/jwebchajari/Savia/internal/platform/firestore"
	"github.com/jwebchajari/Savia/internal/repositories"
)

const defaultCollection = "carts"

// cartDocument is the stored shape. Lines travel as a JSON payload so decimal prices
// keep their exact representation; expiresAt is a native timestamp for a TTL policy.
type cartDocument struct {
	SessionID string    `firestore:"sessionId"`
	Payload   string    `firestore:"payload"`
	Version   int64     `firestore:"version"`
	UpdatedAt time.Time `firestore:"updatedAt"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

func documentFromCart(cart domain.Cart) (cartDocument, error) {
	payload, err := encodeCart(cart)
	if err != nil {
		return cartDocument{}, err
	}
	return cartDocument{
		SessionID: cart.SessionID,
		Payload:   string(payload),
		Version:   cart.Version,
		UpdatedAt: cart.UpdatedAt,
		ExpiresAt: cart.ExpiresAt,
	}, nil
}

func cartFromDocument(doc cartDocument) (domain.Cart, bool) {
	cart, ok := decodeCart([]byte(doc.Payload))
	if !ok {
		return domain.Cart{}, false
	}
	cart.Version = doc.Version
	cart.ExpiresAt = doc.ExpiresAt
	return cart, true
}

// FirestoreStore keeps one document per session and uses transactions for compare-and-set.
type FirestoreStore struct {
	provider   *pfirestore.Provider
	collection string
	now        Clock
}

var _ repositories.CartStore = (*FirestoreStore)(nil)

// NewFirestoreStore binds the store to a collection ("carts" by default).
func NewFirestoreStore(provider *pfirestore.Provider, collection string, clock Clock) (*FirestoreStore, error) {
	if provider == nil {
		return nil, errors.New("firestore cart store: provider is required")
	}
	if strings.TrimSpace(collection) == "" {
		collection = defaultCollection
	}
	return &FirestoreStore{provider: provider, collection: collection, now: orNow(clock)}, nil
}

func (s *FirestoreStore) doc(ctx context.Context, sessionID string) (*firestore.DocumentRef, error) {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return nil, repositories.NewError("carts.client", repositories.KindUnavailable, err)
	}
	return client.Collection(s.collection).Doc(sessionID), nil
}

// Load returns the live cart or a fresh one.
func (s *FirestoreStore) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	ref, err := s.doc(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.NewCart(sessionID), nil
	}
	if err != nil {
		return domain.Cart{}, pfirestore.WrapError("carts.load", err)
	}
	cart, ok := s.decode(snap)
	if !ok || cart.Expired(s.now()) {
		return domain.NewCart(sessionID), nil
	}
	return cart, nil
}

// Save checks the stored version and writes inside one transaction.
func (s *FirestoreStore) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	ref, err := s.doc(ctx, cart.SessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	var saved domain.Cart
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var (
			stored domain.Cart
			found  bool
		)
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			stored, found = s.decode(snap)
		}

		next, err := nextRevision(cart, liveVersion(stored, found, s.now()))
		if err != nil {
			return err
		}
		doc, err := documentFromCart(next)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCartVersionConflict) {
			return domain.Cart{}, repositories.ErrCartVersionConflict
		}
		return domain.Cart{}, err
	}
	return saved, nil
}

// Clear deletes the session document.
func (s *FirestoreStore) Clear(ctx context.Context, sessionID string) error {
	ref, err := s.doc(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("carts.clear", err)
	}
	return nil
}

// Ping reads at most one document from the collection.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return err
	}
	iter := client.Collection(s.collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return pfirestore.WrapError("carts.ping", err)
	}
	return nil
}

func (s *FirestoreStore) decode(snap *firestore.DocumentSnapshot) (domain.Cart, bool) {
	var doc cartDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Cart{}, false
	}
	return cartFromDocument(doc)
}
