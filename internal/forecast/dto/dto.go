package dto

type ForecastQuery struct {
	MerchantID string
	StoreID    string
	VariantID  string
	WindowDays int // optional extra window beyond the defaults
}

type AtRiskQuery struct {
	MerchantID    string
	StoreID       string
	Limit         int
	MinConfidence *float64 // overrides the merchant/config minimum when set
}

type SuggestionFilters struct {
	MerchantID string
	StoreID    string
	CategoryID string
	Page       int
	PageSize   int
}
