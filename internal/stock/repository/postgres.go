package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/stock/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) AppendEntry(ctx context.Context, entry *model.StockLedgerEntry) (int64, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	insert := `
        INSERT INTO stock_ledger (
            id, merchant_id, store_id, variant_id, qty_delta,
            ref_type, ref_id, note, created_by, created_at
        )
        VALUES (
            :id, :merchant_id, :store_id, :variant_id, :qty_delta,
            :ref_type, :ref_id, :note, :created_by, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, insert, entry); err != nil {
		return 0, err
	}

	var onHand int64
	sum := `
        SELECT COALESCE(SUM(qty_delta), 0) FROM stock_ledger
        WHERE merchant_id = $1 AND store_id = $2 AND variant_id = $3
    `
	if err := tx.GetContext(ctx, &onHand, sum, entry.MerchantID, entry.StoreID, entry.VariantID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return onHand, nil
}

func (r *PGRepository) GetLevel(ctx context.Context, merchantID, storeID, variantID string) (*model.StockLevel, error) {
	// Both sums in one statement so the snapshot is consistent under
	// concurrent writers.
	query := `
        SELECT
            COALESCE((
                SELECT SUM(qty_delta) FROM stock_ledger
                WHERE merchant_id = $1 AND store_id = $2 AND variant_id = $3
            ), 0) AS on_hand,
            COALESCE((
                SELECT SUM(quantity) FROM reservations
                WHERE merchant_id = $1 AND store_id = $2 AND variant_id = $3
                  AND status = 'ACTIVE'
            ), 0) AS reserved
    `
	var row struct {
		OnHand   int64 `db:"on_hand"`
		Reserved int64 `db:"reserved"`
	}
	if err := r.DB.GetContext(ctx, &row, query, merchantID, storeID, variantID); err != nil {
		return nil, err
	}

	return &model.StockLevel{
		StoreID:   storeID,
		VariantID: variantID,
		OnHand:    row.OnHand,
		Reserved:  row.Reserved,
		Available: row.OnHand - row.Reserved,
	}, nil
}

func (r *PGRepository) ListEntries(ctx context.Context, f *dto.MovementFilters) ([]model.StockLedgerEntry, int, error) {
	var entries []model.StockLedgerEntry
	var count int

	conditions := []string{"merchant_id = :merchant_id"}
	args := map[string]interface{}{"merchant_id": f.MerchantID}

	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.VariantID != "" {
		conditions = append(conditions, "variant_id = :variant_id")
		args["variant_id"] = f.VariantID
	}
	if f.RefType != "" {
		conditions = append(conditions, "ref_type = :ref_type")
		args["ref_type"] = f.RefType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM stock_ledger" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_ledger" + whereClause + " ORDER BY created_at DESC"
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

	err = nstmt.SelectContext(ctx, &entries, args)
	return entries, count, err
}

func (r *PGRepository) InTransitQty(ctx context.Context, merchantID, storeID, variantID string) (int64, error) {
	var qty int64
	query := `
        SELECT COALESCE(SUM(quantity), 0) FROM transfers
        WHERE merchant_id = $1 AND target_store_id = $2 AND variant_id = $3
          AND status IN ('PENDING', 'IN_TRANSIT')
    `
	err := r.DB.GetContext(ctx, &qty, query, merchantID, storeID, variantID)
	return qty, err
}
