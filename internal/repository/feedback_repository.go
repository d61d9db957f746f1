package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/receipt-vault/internal/model"
)

// FeedbackRepo stores user feedback entries for admin moderation.
type FeedbackRepo struct{ DB *sql.DB }

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{DB: db} }

// Create inserts a feedback entry and returns its ID.
func (r *FeedbackRepo) Create(ctx context.Context, userID uint64, ftype model.FeedbackType, body string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO feedback (user_id, type, body) VALUES (?,?,?)",
		userID, string(ftype), body)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single feedback entry.
func (r *FeedbackRepo) GetByID(ctx context.Context, id uint64) (model.Feedback, error) {
	var (
		f     model.Feedback
		ftype string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,type,body,showcased,created_at FROM feedback WHERE id=? LIMIT 1", id).
		Scan(&f.ID, &f.UserID, &ftype, &f.Body, &f.Showcased, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Feedback{}, ErrFeedbackNotFound
	}
	f.Type = model.FeedbackType(ftype)
	return f, err
}

// List returns all feedback entries, newest first.
func (r *FeedbackRepo) List(ctx context.Context) ([]model.Feedback, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,type,body,showcased,created_at FROM feedback ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Feedback
	for rows.Next() {
		var (
			f     model.Feedback
			ftype string
		)
		if err := rows.Scan(&f.ID, &f.UserID, &ftype, &f.Body, &f.Showcased, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Type = model.FeedbackType(ftype)
		out = append(out, f)
	}
	return out, rows.Err()
}

// SetShowcased updates the showcased flag and returns the updated entry.
func (r *FeedbackRepo) SetShowcased(ctx context.Context, id uint64, showcased bool) (model.Feedback, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE feedback SET showcased=? WHERE id=?", showcased, id); err != nil {
		return model.Feedback{}, err
	}
	// Zero affected rows can mean "already at that value"; GetByID settles
	// whether the row exists.
	return r.GetByID(ctx, id)
}
