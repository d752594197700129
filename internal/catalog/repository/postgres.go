package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetStore(ctx context.Context, merchantID, storeID string) (*model.Store, error) {
	var store model.Store
	query := `SELECT * FROM stores WHERE merchant_id = $1 AND id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &store, query, merchantID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *PGRepository) GetVariant(ctx context.Context, merchantID, variantID string) (*model.Variant, error) {
	var variant model.Variant
	query := `SELECT * FROM variants WHERE merchant_id = $1 AND id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &variant, query, merchantID, variantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

func (r *PGRepository) ListVariants(ctx context.Context, f *dto.VariantFilters) ([]model.Variant, int, error) {
	var variants []model.Variant
	var count int

	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM variants" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM variants" + whereClause + " ORDER BY sku"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &variants, args)
	return variants, count, err
}

func (r *PGRepository) GetSettings(ctx context.Context, merchantID string) (*model.MerchantSettings, error) {
	var settings model.MerchantSettings
	query := `SELECT * FROM merchant_settings WHERE merchant_id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &settings, query, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // caller falls back to config defaults
		}
		return nil, err
	}
	return &settings, nil
}
