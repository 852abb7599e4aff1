package rtdb

import (
	"context"
	"errors"
	"strings"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/repositories"
)

// StoreRepository reads and writes the store metadata document.
type StoreRepository struct {
	db   Database
	path string
}

var _ repositories.StoreRepository = (*StoreRepository)(nil)

// NewStoreRepository builds a repository for the document at storePath.
func NewStoreRepository(database Database, storePath string) (*StoreRepository, error) {
	if database == nil {
		return nil, errors.New("rtdb store repository: database is required")
	}
	p := strings.Trim(strings.TrimSpace(storePath), "/")
	if p == "" {
		p = "local/datosComerciales"
	}
	return &StoreRepository{db: database, path: p}, nil
}

// GetStoreInfo returns normalized store data; an absent document yields defaults.
func (r *StoreRepository) GetStoreInfo(ctx context.Context) (domain.StoreInfo, error) {
	var raw map[string]any
	if err := r.db.Ref(r.path).Get(ctx, &raw); err != nil {
		return domain.StoreInfo{}, repositories.NewError("store.get", repositories.KindUnavailable, err)
	}
	return StoreFromRecord(raw), nil
}

// SaveStoreInfo merges the document so unrelated keys survive.
func (r *StoreRepository) SaveStoreInfo(ctx context.Context, info domain.StoreInfo) error {
	if err := r.db.Ref(r.path).Update(ctx, StoreToRecord(info)); err != nil {
		return repositories.NewError("store.save", repositories.KindUnavailable, err)
	}
	return nil
}
