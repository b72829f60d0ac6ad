package domain

import (
	"sort"

	"github.com/stockyard/stockd"
)

// Allocate places the line in the preferred batch: warehouse stock first,
// then shipments in ETA order. It returns the reference of the chosen batch,
// or OutOfStockError when no batch can take the line.
func Allocate(line stockd.OrderLine, batches []*Batch) (string, error) {
	sorted := make([]*Batch, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Precedes(sorted[j])
	})

	for _, batch := range sorted {
		if batch.CanAllocate(line) {
			batch.Allocate(line)
			return batch.Reference, nil
		}
	}

	return "", OutOfStockError{SKU: line.SKU}
}

// Deallocate removes the line from whichever batch holds it and returns that
// batch's reference. Lines that were never allocated yield NotFoundError.
func Deallocate(line stockd.OrderLine, batches []*Batch) (string, error) {
	for _, batch := range batches {
		if batch.HasAllocation(line) {
			batch.Deallocate(line)
			return batch.Reference, nil
		}
	}
	return "", NotFoundError{Resource: "allocation"}
}
