package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/receipt-vault/internal/model"
)

const userColumns = "id,email,password_hash,role,is_activated,activated_at," +
	"activation_source,activation_txn_id,is_early_access,first_name,last_name,created_at,updated_at"

// UserRepo is the credential store over the 'users' table. Email is
// normalized to lowercase at every read and write boundary.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. The password arrives already
// hashed; hashing mechanics stay outside the store.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string, role model.Role, earlyAccess bool, firstName, lastName string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_early_access, first_name, last_name) VALUES (?,?,?,?,?,?)",
		email, passwordHash, string(role), earlyAccess, firstName, lastName)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateRole sets a user's role and returns the updated record.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role model.Role) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=?", string(role), id)
	if err != nil {
		return model.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean the role already matched; verify existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// ActivateFromCheckout flips a user to activated exactly once. The UPDATE is
// conditional on is_activated=0 so concurrent deliveries of the same checkout
// completion cannot double-apply: the second writer matches zero rows and
// gets ErrAlreadyActivated, which callers treat as a successful no-op.
func (r *UserRepo) ActivateFromCheckout(ctx context.Context, id uint64, txnID string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_activated=1, activated_at=?, activation_source=?, activation_txn_id=? WHERE id=? AND is_activated=0",
		at.UTC(), string(model.SourceStripe), txnID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err // ErrUserNotFound
		}
		return ErrAlreadyActivated
	}
	return nil
}

// GrantActivation activates a user without a payment, recording the manual
// source (admin or beta). Like ActivateFromCheckout the write is conditional,
// and no transaction reference is stored for non-stripe sources.
func (r *UserRepo) GrantActivation(ctx context.Context, id uint64, source model.ActivationSource, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_activated=1, activated_at=?, activation_source=?, activation_txn_id=NULL WHERE id=? AND is_activated=0",
		at.UTC(), string(source), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyActivated
	}
	return nil
}

// DeleteCascade removes a user and every owned row in one transaction and
// returns the object-store keys of the user's receipts so the caller can
// queue best-effort cleanup. Either the user and all dependents go, or
// nothing does.
func (r *UserRepo) DeleteCascade(ctx context.Context, id uint64) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, "SELECT object_key FROM receipts WHERE user_id=?", id)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM receipts WHERE user_id=?", id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM feedback WHERE user_id=?", id); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u     model.User
		role  string
		src   sql.NullString
		txn   sql.NullString
		actAt sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActivated, &actAt,
		&src, &txn, &u.IsEarlyAccess, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if actAt.Valid {
		t := actAt.Time
		u.ActivatedAt = &t
	}
	if src.Valid {
		u.ActivationSrc = model.ActivationSource(src.String)
	}
	if txn.Valid {
		u.ActivationTxnID = txn.String
	}
	return u, nil
}
