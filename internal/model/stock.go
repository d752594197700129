package model

import "time"

// Ledger ref types. Every quantity movement is tagged with the kind of business
// event that produced it.
const (
	RefSale              = "SALE"
	RefReturn            = "RETURN"
	RefTransferIn        = "TRANSFER_IN"
	RefTransferOut       = "TRANSFER_OUT"
	RefCountAdjustment   = "COUNT_ADJUSTMENT"
	RefReservationCommit = "RESERVATION_COMMIT"
)

// ValidRefType reports whether t is one of the ledger ref types.
func ValidRefType(t string) bool {
	switch t {
	case RefSale, RefReturn, RefTransferIn, RefTransferOut, RefCountAdjustment, RefReservationCommit:
		return true
	}
	return false
}

// StockLedgerEntry is an immutable quantity movement. Entries are never updated
// or deleted; corrections are new entries. On-hand for a (store, variant) pair
// is the running sum of QtyDelta.
type StockLedgerEntry struct {
	ID         string    `db:"id" json:"id"`
	MerchantID string    `db:"merchant_id" json:"merchant_id"`
	StoreID    string    `db:"store_id" json:"store_id"`
	VariantID  string    `db:"variant_id" json:"variant_id"`
	QtyDelta   int64     `db:"qty_delta" json:"qty_delta"`
	RefType    string    `db:"ref_type" json:"ref_type"`
	RefID      *string   `db:"ref_id" json:"ref_id"`
	Note       string    `db:"note" json:"note"`
	CreatedBy  *string   `db:"created_by" json:"created_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StockLevel is derived on read from the ledger plus active reservations. It
// is never stored as authoritative state.
type StockLevel struct {
	StoreID   string `json:"store_id"`
	VariantID string `json:"variant_id"`
	OnHand    int64  `json:"on_hand"`
	Reserved  int64  `json:"reserved"`
	Available int64  `json:"available"`
}
