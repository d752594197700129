package dto

import "time"

type AdjustmentInput struct {
	MerchantID string
	StoreID    string
	VariantID  string
	QtyDelta   int64
	RefType    string // RETURN, TRANSFER_IN, TRANSFER_OUT, COUNT_ADJUSTMENT, SALE
	RefID      string
	Note       string
	UserID     string
}

type MovementFilters struct {
	MerchantID string
	StoreID    string
	VariantID  string
	RefType    string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

// Availability is the availability endpoint's response shape. Field names are
// part of the client contract.
type Availability struct {
	VariantID   string `json:"variant_id"`
	StoreID     string `json:"store_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	OnHand      int64  `json:"on_hand"`
	Reserved    int64  `json:"reserved"`
	Available   int64  `json:"available"`
	InTransit   int64  `json:"in_transit"`
}
