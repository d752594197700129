package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/reservation/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
        INSERT INTO reservations (
            id, merchant_id, store_id, variant_id, quantity, status,
            ref_type, ref_id, channel, note, expires_at, resolved_at,
            created_by, created_at
        )
        VALUES (
            :id, :merchant_id, :store_id, :variant_id, :quantity, :status,
            :ref_type, :ref_id, :channel, :note, :expires_at, :resolved_at,
            :created_by, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, res)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, merchantID, id string) (*model.Reservation, error) {
	var res model.Reservation
	query := `SELECT * FROM reservations WHERE merchant_id = $1 AND id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &res, query, merchantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.Filters) ([]model.Reservation, int, error) {
	var items []model.Reservation
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
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Channel != "" {
		conditions = append(conditions, "channel = :channel")
		args["channel"] = f.Channel
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM reservations" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM reservations" + whereClause + " ORDER BY created_at DESC"
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

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

// transitionTx is the CAS at the heart of the state machine: the WHERE clause
// makes losing a Commit/Release/Expire race a zero-row update, never a
// double-apply.
func transitionTx(ctx context.Context, tx sqlx.ExtContext, merchantID, id, toStatus string, resolvedAt time.Time) (bool, error) {
	result, err := tx.ExecContext(ctx, `
        UPDATE reservations
        SET status = $1, resolved_at = $2
        WHERE merchant_id = $3 AND id = $4 AND status = 'ACTIVE'
    `, toStatus, resolvedAt, merchantID, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PGRepository) TransitionFromActive(ctx context.Context, merchantID, id, toStatus string, resolvedAt time.Time) (bool, error) {
	return transitionTx(ctx, r.DB, merchantID, id, toStatus, resolvedAt)
}

func (r *PGRepository) CommitWithLedger(ctx context.Context, res *model.Reservation, entry *model.StockLedgerEntry) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	ok, err := transitionTx(ctx, tx, res.MerchantID, res.ID, model.ReservationCommitted, entry.CreatedAt)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

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
		return false, err
	}

	return true, tx.Commit()
}

func (r *PGRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	var items []model.Reservation
	query := `
        SELECT * FROM reservations
        WHERE status = 'ACTIVE' AND expires_at IS NOT NULL AND expires_at <= $1
        ORDER BY expires_at
        LIMIT $2
    `
	err := r.DB.SelectContext(ctx, &items, query, now, limit)
	return items, err
}
