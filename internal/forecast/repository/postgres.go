package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) SalesStats(ctx context.Context, merchantID, storeID, variantID string, since time.Time) (int64, int, error) {
	// ABS because sale deltas are negative in the ledger; magnitude is what
	// velocity wants.
	query := `
        SELECT
            COALESCE(SUM(ABS(qty_delta)), 0) AS total_qty,
            COUNT(DISTINCT created_at::date)  AS days_with_sales
        FROM stock_ledger
        WHERE merchant_id = $1 AND store_id = $2 AND variant_id = $3
          AND ref_type IN ('SALE', 'RESERVATION_COMMIT')
          AND created_at >= $4
    `
	var row struct {
		TotalQty      int64 `db:"total_qty"`
		DaysWithSales int   `db:"days_with_sales"`
	}
	if err := r.DB.GetContext(ctx, &row, query, merchantID, storeID, variantID, since); err != nil {
		return 0, 0, err
	}
	return row.TotalQty, row.DaysWithSales, nil
}
