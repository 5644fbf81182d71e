package storage

import (
	"context"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

// Persister writes a reduced collection to one destination.
type Persister interface {
	Persist(ctx context.Context, collection domain.ReducedCollection) error
}

// Multi persists to each destination in order and stops at the first failure.
type Multi []Persister

func (m Multi) Persist(ctx context.Context, collection domain.ReducedCollection) error {
	for _, p := range m {
		if err := p.Persist(ctx, collection); err != nil {
			return err
		}
	}
	return nil
}
