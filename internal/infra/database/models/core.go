package models

import (
	"time"
)

type Batch struct {
	ID                int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Reference         string     `json:"reference" gorm:"type:text;index:batch_reference,unique;not null"`
	SKU               string     `json:"sku" gorm:"type:text;index;not null"`
	PurchasedQuantity int        `json:"purchasedQuantity" gorm:"not null"`
	ETA               *time.Time `json:"eta" gorm:"type:timestamp with time zone"`
	CDate             time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type OrderLine struct {
	ID      int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID string `json:"orderid" gorm:"type:text;index;not null;uniqueIndex:order_line_identity"`
	SKU     string `json:"sku" gorm:"type:text;not null;uniqueIndex:order_line_identity"`
	Qty     int    `json:"qty" gorm:"not null;uniqueIndex:order_line_identity"`
}

type Allocation struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BatchID     int64     `json:"batchID" gorm:"uniqueIndex:uniq_allocation"`
	Batch       Batch     `json:"-" gorm:"foreignKey:BatchID;references:ID;constraint:OnDelete:CASCADE;"`
	OrderLineID int64     `json:"orderLineID" gorm:"uniqueIndex:uniq_allocation"`
	OrderLine   OrderLine `json:"-" gorm:"foreignKey:OrderLineID;references:ID;constraint:OnDelete:CASCADE;"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
