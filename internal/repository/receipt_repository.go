package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/receipt-vault/internal/model"
)

// ReceiptRepo stores the ownership and object-store linkage for uploaded
// receipt scans. Line items and rendering are outside this service.
type ReceiptRepo struct{ DB *sql.DB }

func NewReceiptRepo(db *sql.DB) *ReceiptRepo { return &ReceiptRepo{DB: db} }

// Create inserts a receipt row for an upload that is about to happen and
// returns its ID.
func (r *ReceiptRepo) Create(ctx context.Context, userID uint64, title, objectKey string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO receipts (user_id, title, object_key) VALUES (?,?,?)",
		userID, title, objectKey)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns a user's receipts, newest first.
func (r *ReceiptRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Receipt, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,title,object_key,created_at FROM receipts WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Receipt
	for rows.Next() {
		var rec model.Receipt
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.ObjectKey, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteByIDAndOwner removes a receipt owned by the given user and returns
// its object key for storage cleanup. A receipt that does not exist and a
// receipt owned by someone else both yield ErrReceiptNotFound.
func (r *ReceiptRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (string, error) {
	var key string
	err := r.DB.QueryRowContext(ctx,
		"SELECT object_key FROM receipts WHERE id=? AND user_id=? LIMIT 1", id, ownerID).Scan(&key)
	if err == sql.ErrNoRows {
		return "", ErrReceiptNotFound
	}
	if err != nil {
		return "", err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM receipts WHERE id=? AND user_id=?", id, ownerID)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrReceiptNotFound
	}
	return key, nil
}
