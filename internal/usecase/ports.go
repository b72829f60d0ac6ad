package usecase

import (
	"context"

	"github.com/stockyard/stockd"
	"github.com/stockyard/stockd/internal/domain"
)

// BatchRepository defines persistence for batches and their allocations.
type BatchRepository interface {
	Add(ctx context.Context, batch *domain.Batch) error
	Get(ctx context.Context, ref string) (*domain.Batch, error)
	ListBySKU(ctx context.Context, sku string) ([]*domain.Batch, error)
	Sync(ctx context.Context, batch *domain.Batch) error
}

// StockCache caches summed stock levels per SKU.
type StockCache interface {
	GetLevel(ctx context.Context, sku string) (int, bool)
	SetLevel(ctx context.Context, sku string, available int) error
	Invalidate(ctx context.Context, sku string) error
}

// EventPublisher broadcasts allocation state changes.
type EventPublisher interface {
	Publish(ctx context.Context, event stockd.Event) error
}
