package forecast

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/forecast/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	ReorderForecast(ctx context.Context, q *dto.ForecastQuery) (*model.ReorderForecast, error)
	AtRiskItems(ctx context.Context, q *dto.AtRiskQuery) ([]model.ReorderForecast, error)
	ReorderSuggestions(ctx context.Context, filters *dto.SuggestionFilters) ([]model.ReorderSuggestion, int, error)
}
