package model

import "time"

// Reservation statuses. ACTIVE is the only non-terminal state; a reservation
// transitions at most once out of it.
const (
	ReservationActive    = "ACTIVE"
	ReservationCommitted = "COMMITTED"
	ReservationReleased  = "RELEASED"
	ReservationExpired   = "EXPIRED"
)

type Reservation struct {
	ID         string     `db:"id" json:"id"`
	MerchantID string     `db:"merchant_id" json:"merchant_id"`
	StoreID    string     `db:"store_id" json:"store_id"`
	VariantID  string     `db:"variant_id" json:"variant_id"`
	Quantity   int64      `db:"quantity" json:"quantity"`
	Status     string     `db:"status" json:"status"`
	RefType    string     `db:"ref_type" json:"ref_type"`
	RefID      *string    `db:"ref_id" json:"ref_id"`
	Channel    string     `db:"channel" json:"channel"`
	Note       string     `db:"note" json:"note"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at"`
	CreatedBy  *string    `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// IsTerminal reports whether the reservation can no longer transition.
func (r *Reservation) IsTerminal() bool {
	return r.Status != ReservationActive
}
