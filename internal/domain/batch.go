package domain

import (
	"fmt"
	"time"

	"github.com/stockyard/stockd"
)

// Batch is a batch of stock ordered from a supplier. Batches are entities:
// their identity is the reference, and allocations or a changed ETA leave
// them recognizably the same batch.
type Batch struct {
	Reference string
	SKU       string
	ETA       *time.Time

	purchasedQuantity int
	allocations       map[stockd.OrderLine]struct{}
}

func NewBatch(ref string, sku string, qty int, eta *time.Time) *Batch {
	return &Batch{
		Reference:         ref,
		SKU:               sku,
		ETA:               eta,
		purchasedQuantity: qty,
		allocations:       map[stockd.OrderLine]struct{}{},
	}
}

func (b *Batch) String() string {
	return fmt.Sprintf("<Batch %s>", b.Reference)
}

// Equal compares by identity. Two batches with the same reference are the
// same entity regardless of their other attributes.
func (b *Batch) Equal(other *Batch) bool {
	if other == nil {
		return false
	}
	return b.Reference == other.Reference
}

// Precedes orders batches for allocation: warehouse stock (no ETA) comes
// before shipments, earlier shipments before later ones. Two warehouse
// batches compare as equal so a stable sort keeps their input order.
func (b *Batch) Precedes(other *Batch) bool {
	if b.ETA == nil {
		return other.ETA != nil
	}
	if other.ETA == nil {
		return false
	}
	return b.ETA.Before(*other.ETA)
}

// CanAllocate reports whether the line fits in this batch.
func (b *Batch) CanAllocate(line stockd.OrderLine) bool {
	return b.SKU == line.SKU && b.AvailableQuantity() >= line.Qty
}

// Allocate adds the line to the batch if it fits. Allocating the same line
// twice has no further effect.
func (b *Batch) Allocate(line stockd.OrderLine) {
	if b.CanAllocate(line) {
		b.allocations[line] = struct{}{}
	}
}

// Load adds a previously persisted allocation without re-checking fit.
// Repositories use it to rehydrate batches.
func (b *Batch) Load(line stockd.OrderLine) {
	b.allocations[line] = struct{}{}
}

// Deallocate removes the line. Unallocated lines are ignored.
func (b *Batch) Deallocate(line stockd.OrderLine) {
	delete(b.allocations, line)
}

func (b *Batch) PurchasedQuantity() int {
	return b.purchasedQuantity
}

func (b *Batch) AllocatedQuantity() int {
	total := 0
	for line := range b.allocations {
		total += line.Qty
	}
	return total
}

func (b *Batch) AvailableQuantity() int {
	return b.purchasedQuantity - b.AllocatedQuantity()
}

// Allocations returns a copy of the allocation set.
func (b *Batch) Allocations() []stockd.OrderLine {
	lines := make([]stockd.OrderLine, 0, len(b.allocations))
	for line := range b.allocations {
		lines = append(lines, line)
	}
	return lines
}

// HasAllocation reports whether the exact line is allocated to this batch.
func (b *Batch) HasAllocation(line stockd.OrderLine) bool {
	_, ok := b.allocations[line]
	return ok
}
