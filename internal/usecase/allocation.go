package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/stockyard/stockd"
	"github.com/stockyard/stockd/internal/domain"
)

var tracer = otel.Tracer("allocation")

type AllocationUsecase struct {
	repo   BatchRepository
	cache  StockCache
	events EventPublisher
}

func NewAllocationUsecase(repo BatchRepository, cache StockCache, events EventPublisher) *AllocationUsecase {
	return &AllocationUsecase{
		repo:   repo,
		cache:  cache,
		events: events,
	}
}

// AddBatch registers a new batch of purchased stock.
func (uc *AllocationUsecase) AddBatch(ctx context.Context, spec stockd.BatchSpec) error {
	ctx, span := tracer.Start(ctx, "AllocationUsecase.AddBatch")
	defer span.End()

	sku := stockd.NormalizeSKU(spec.SKU)
	if spec.Reference == "" || !stockd.ValidSKU(sku) || spec.Qty <= 0 {
		return domain.InvalidInputError{Reason: "invalid batch spec"}
	}

	batch := domain.NewBatch(spec.Reference, sku, spec.Qty, spec.ETA)
	if err := uc.repo.Add(ctx, batch); err != nil {
		return errors.Wrap(err, "failed to add batch")
	}

	uc.invalidate(ctx, sku)
	uc.publish(ctx, stockd.Event{
		Type:      stockd.EventBatchAdded,
		SKU:       sku,
		Reference: spec.Reference,
	})

	return nil
}

// Allocate places an order line in the preferred batch for its SKU and
// returns the chosen batch reference.
func (uc *AllocationUsecase) Allocate(ctx context.Context, line stockd.OrderLine) (string, error) {
	ctx, span := tracer.Start(ctx, "AllocationUsecase.Allocate")
	defer span.End()
	span.SetAttributes(attribute.String("sku", line.SKU))

	line.SKU = stockd.NormalizeSKU(line.SKU)
	if !stockd.ValidOrderLine(line) {
		return "", domain.InvalidInputError{Reason: "invalid order line"}
	}

	batches, err := uc.repo.ListBySKU(ctx, line.SKU)
	if err != nil {
		return "", errors.Wrap(err, "failed to list batches")
	}

	ref, err := domain.Allocate(line, batches)
	if err != nil {
		return "", err
	}

	for _, batch := range batches {
		if batch.Reference != ref {
			continue
		}
		if err := uc.repo.Sync(ctx, batch); err != nil {
			return "", errors.Wrap(err, "failed to persist allocation")
		}
	}

	uc.invalidate(ctx, line.SKU)
	uc.publish(ctx, stockd.Event{
		Type:      stockd.EventAllocated,
		SKU:       line.SKU,
		Reference: ref,
		Line:      line,
	})

	return ref, nil
}

// Deallocate removes an order line from whichever batch holds it.
func (uc *AllocationUsecase) Deallocate(ctx context.Context, line stockd.OrderLine) (string, error) {
	ctx, span := tracer.Start(ctx, "AllocationUsecase.Deallocate")
	defer span.End()

	line.SKU = stockd.NormalizeSKU(line.SKU)
	if !stockd.ValidOrderLine(line) {
		return "", domain.InvalidInputError{Reason: "invalid order line"}
	}

	batches, err := uc.repo.ListBySKU(ctx, line.SKU)
	if err != nil {
		return "", errors.Wrap(err, "failed to list batches")
	}

	ref, err := domain.Deallocate(line, batches)
	if err != nil {
		return "", err
	}

	for _, batch := range batches {
		if batch.Reference != ref {
			continue
		}
		if err := uc.repo.Sync(ctx, batch); err != nil {
			return "", errors.Wrap(err, "failed to persist deallocation")
		}
	}

	uc.invalidate(ctx, line.SKU)
	uc.publish(ctx, stockd.Event{
		Type:      stockd.EventDeallocated,
		SKU:       line.SKU,
		Reference: ref,
		Line:      line,
	})

	return ref, nil
}

// GetBatch returns the batch with its current allocations.
func (uc *AllocationUsecase) GetBatch(ctx context.Context, ref string) (stockd.BatchState, error) {
	batch, err := uc.repo.Get(ctx, ref)
	if err != nil {
		return stockd.BatchState{}, err
	}

	return stockd.BatchState{
		Reference:         batch.Reference,
		SKU:               batch.SKU,
		PurchasedQuantity: batch.PurchasedQuantity(),
		AvailableQuantity: batch.AvailableQuantity(),
		ETA:               batch.ETA,
		Allocations:       batch.Allocations(),
	}, nil
}

// StockLevel returns the summed availability for a SKU, read through the
// stock cache.
func (uc *AllocationUsecase) StockLevel(ctx context.Context, sku string) (stockd.StockLevel, error) {
	ctx, span := tracer.Start(ctx, "AllocationUsecase.StockLevel")
	defer span.End()

	sku = stockd.NormalizeSKU(sku)
	if !stockd.ValidSKU(sku) {
		return stockd.StockLevel{}, domain.InvalidInputError{Reason: "invalid sku"}
	}

	if uc.cache != nil {
		if available, ok := uc.cache.GetLevel(ctx, sku); ok {
			return stockd.StockLevel{SKU: sku, Available: available}, nil
		}
	}

	batches, err := uc.repo.ListBySKU(ctx, sku)
	if err != nil {
		return stockd.StockLevel{}, errors.Wrap(err, "failed to list batches")
	}
	if len(batches) == 0 {
		return stockd.StockLevel{}, domain.NotFoundError{Resource: "sku"}
	}

	available := 0
	for _, batch := range batches {
		available += batch.AvailableQuantity()
	}

	if uc.cache != nil {
		if err := uc.cache.SetLevel(ctx, sku, available); err != nil {
			slog.WarnContext(ctx, "failed to cache stock level",
				slog.String("sku", sku),
				slog.String("error", err.Error()),
			)
		}
	}

	return stockd.StockLevel{SKU: sku, Available: available}, nil
}

func (uc *AllocationUsecase) invalidate(ctx context.Context, sku string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, sku); err != nil {
		slog.WarnContext(ctx, "failed to invalidate stock cache",
			slog.String("sku", sku),
			slog.String("error", err.Error()),
		)
	}
}

func (uc *AllocationUsecase) publish(ctx context.Context, event stockd.Event) {
	if uc.events == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := uc.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
	}
}
