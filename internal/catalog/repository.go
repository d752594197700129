package catalog

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// Repository reads the scoped reference entities this engine validates against.
// Stores and variants are owned by the product service; this side is read-only.
type Repository interface {
	GetStore(ctx context.Context, merchantID, storeID string) (*model.Store, error)
	GetVariant(ctx context.Context, merchantID, variantID string) (*model.Variant, error)
	ListVariants(ctx context.Context, filters *dto.VariantFilters) ([]model.Variant, int, error)
	GetSettings(ctx context.Context, merchantID string) (*model.MerchantSettings, error)
}
