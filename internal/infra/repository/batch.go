package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockyard/stockd"
	"github.com/stockyard/stockd/internal/domain"
	"github.com/stockyard/stockd/internal/infra/database/models"
)

// BatchRepository persists batches and their allocation sets. The domain
// model stays unaware of the tables; all mapping happens here.
type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Add(ctx context.Context, batch *domain.Batch) error {
	row := models.Batch{
		Reference:         batch.Reference,
		SKU:               batch.SKU,
		PurchasedQuantity: batch.PurchasedQuantity(),
		ETA:               batch.ETA,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *BatchRepository) Get(ctx context.Context, ref string) (*domain.Batch, error) {
	var row models.Batch
	err := r.db.WithContext(ctx).
		Where("reference = ?", ref).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "batch"}
		}
		return nil, err
	}

	return r.hydrate(ctx, r.db, row)
}

func (r *BatchRepository) ListBySKU(ctx context.Context, sku string) ([]*domain.Batch, error) {
	var rows []models.Batch
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	batches := make([]*domain.Batch, 0, len(rows))
	for _, row := range rows {
		batch, err := r.hydrate(ctx, r.db, row)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// Sync reconciles the stored allocation rows with the batch's in-memory
// allocation set inside one transaction, locking the batch row.
func (r *BatchRepository) Sync(ctx context.Context, batch *domain.Batch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var row models.Batch
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reference = ?", batch.Reference).
			Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "batch"}
			}
			return err
		}

		wanted := map[int64]struct{}{}
		for _, line := range batch.Allocations() {
			lineRow := models.OrderLine{
				OrderID: line.OrderID,
				SKU:     line.SKU,
				Qty:     line.Qty,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_id"}, {Name: "sku"}, {Name: "qty"}},
				DoNothing: true,
			}).Create(&lineRow).Error
			if err != nil {
				return err
			}
			if lineRow.ID == 0 {
				// Conflict path: fetch the existing row.
				err = tx.Where("order_id = ? AND sku = ? AND qty = ?",
					line.OrderID, line.SKU, line.Qty).
					Take(&lineRow).Error
				if err != nil {
					return err
				}
			}

			err = tx.Clauses(clause.OnConflict{
				DoNothing: true,
			}).Create(&models.Allocation{
				BatchID:     row.ID,
				OrderLineID: lineRow.ID,
			}).Error
			if err != nil {
				return err
			}
			wanted[lineRow.ID] = struct{}{}
		}

		var stored []models.Allocation
		err = tx.Where("batch_id = ?", row.ID).Find(&stored).Error
		if err != nil {
			return err
		}

		for _, alloc := range stored {
			if _, ok := wanted[alloc.OrderLineID]; ok {
				continue
			}
			if err := tx.Delete(&models.Allocation{}, "id = ?", alloc.ID).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *BatchRepository) hydrate(ctx context.Context, db *gorm.DB, row models.Batch) (*domain.Batch, error) {
	batch := domain.NewBatch(row.Reference, row.SKU, row.PurchasedQuantity, row.ETA)

	var lines []models.OrderLine
	err := db.WithContext(ctx).
		Joins("JOIN allocations ON allocations.order_line_id = order_lines.id").
		Where("allocations.batch_id = ?", row.ID).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		batch.Load(stockd.OrderLine{
			OrderID: line.OrderID,
			SKU:     line.SKU,
			Qty:     line.Qty,
		})
	}

	return batch, nil
}
