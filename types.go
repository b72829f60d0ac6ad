package stockd

import (
	"time"
)

const (
	EventAllocated   string = "allocated"
	EventDeallocated string = "deallocated"
	EventBatchAdded  string = "batch_added"
)

// OrderLine is a line of a customer order. It is a value object: two lines
// with the same order id, SKU and quantity are the same line.
type OrderLine struct {
	OrderID string `json:"orderid"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

// BatchSpec is the wire form used to register a new batch of stock.
type BatchSpec struct {
	Reference string     `json:"reference"`
	SKU       string     `json:"sku"`
	Qty       int        `json:"qty"`
	ETA       *time.Time `json:"eta,omitempty"`
}

// BatchState is the wire form of a batch with its current allocations.
type BatchState struct {
	Reference         string      `json:"reference"`
	SKU               string      `json:"sku"`
	PurchasedQuantity int         `json:"purchasedQuantity"`
	AvailableQuantity int         `json:"availableQuantity"`
	ETA               *time.Time  `json:"eta,omitempty"`
	Allocations       []OrderLine `json:"allocations"`
}

// StockLevel reports the summed availability for a SKU across batches.
type StockLevel struct {
	SKU       string `json:"sku"`
	Available int    `json:"available"`
}

// Event is published whenever the allocation state of a SKU changes.
type Event struct {
	Type      string    `json:"type"`
	SKU       string    `json:"sku"`
	Reference string    `json:"reference,omitempty"`
	Line      OrderLine `json:"line"`
	Timestamp time.Time `json:"timestamp"`
}

// WellKnownStockd describes this node's endpoints.
type WellKnownStockd struct {
	Version   string            `json:"version"`
	FQDN      string            `json:"fqdn"`
	Endpoints map[string]string `json:"endpoints"`
}
