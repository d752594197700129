package dto

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type ReserveInput struct {
	MerchantID string
	StoreID    string
	VariantID  string
	Quantity   int64
	RefType    string
	RefID      *string
	Channel    string
	Note       string
	ExpiresAt  *time.Time
	UserID     string
}

type Filters struct {
	MerchantID string
	StoreID    string
	VariantID  string
	Status     string
	Channel    string
	Page       int
	PageSize   int
}

type CommitResult struct {
	Reservation   *model.Reservation `json:"reservation"`
	OnHandAfter   int64              `json:"on_hand_after"`
	ReservedAfter int64              `json:"reserved_after"`
}
