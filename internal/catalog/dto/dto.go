package dto

type VariantFilters struct {
	MerchantID string
	CategoryID string
	IsActive   *bool
	Page       int
	PageSize   int
}
