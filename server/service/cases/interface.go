package cases

import (
	"context"

	"github.com/hrygo/ghiseu/store"
)

// Store is the subset of store operations the case service needs.
type Store interface {
	CreateCase(ctx context.Context, create *store.Case) (*store.Case, error)
	ListCases(ctx context.Context, find *store.FindCase) ([]*store.Case, error)
	GetCase(ctx context.Context, find *store.FindCase) (*store.Case, error)
	UpdateCase(ctx context.Context, update *store.UpdateCase) error
}
