package model

// Store and Variant are scoped reference entities owned by the product service.
// This engine only validates against them and reads reorder configuration.

type Store struct {
	BaseModel
	MerchantID string `db:"merchant_id" json:"merchant_id"`
	Name       string `db:"name" json:"name"`
	IsActive   bool   `db:"is_active" json:"is_active"`
}

type Variant struct {
	BaseModel
	MerchantID         string  `db:"merchant_id" json:"merchant_id"`
	ProductID          string  `db:"product_id" json:"product_id"`
	CategoryID         *string `db:"category_id" json:"category_id"`
	SKU                string  `db:"sku" json:"sku"`
	ProductName        string  `db:"product_name" json:"product_name"`
	VariantName        string  `db:"variant_name" json:"variant_name"`
	ReorderPoint       *int64  `db:"reorder_point" json:"reorder_point"` // nil → merchant default applies
	ReorderQty         *int64  `db:"reorder_qty" json:"reorder_qty"`
	VendorLeadTimeDays float64 `db:"vendor_lead_time_days" json:"vendor_lead_time_days"`
	SafetyStockDays    float64 `db:"safety_stock_days" json:"safety_stock_days"`
	IsActive           bool    `db:"is_active" json:"is_active"`
}

// MerchantSettings carries tenant-wide forecasting defaults.
type MerchantSettings struct {
	MerchantID       string  `db:"merchant_id" json:"merchant_id"`
	DefaultThreshold int64   `db:"default_threshold" json:"default_threshold"`
	RiskHorizonDays  float64 `db:"risk_horizon_days" json:"risk_horizon_days"`
	MinConfidence    float64 `db:"min_confidence" json:"min_confidence"`
}
