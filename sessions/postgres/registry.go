// Package postgres is a durable sessions.Registry backed by the refresh_sessions table.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jrsteele09/go-expense-tracker/sessions"
	pkgerrors "github.com/pkg/errors"
)

type Registry struct {
	db *sql.DB
}

var _ sessions.Registry = (*Registry)(nil)

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) Put(ctx context.Context, userID int64, refreshToken string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_sessions (user_id, token, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, updated_at = now()`,
		userID, refreshToken)
	return pkgerrors.Wrap(err, "[Registry.Put]")
}

func (r *Registry) Get(ctx context.Context, userID int64) (string, bool, error) {
	var t string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM refresh_sessions WHERE user_id = $1`, userID).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(err, "[Registry.Get]")
	}
	return t, true, nil
}

func (r *Registry) Remove(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE user_id = $1`, userID)
	return pkgerrors.Wrap(err, "[Registry.Remove]")
}

// CompareAndSwap relies on the row-level atomicity of a single conditional UPDATE
func (r *Registry) CompareAndSwap(ctx context.Context, userID int64, current, next string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET token = $3, updated_at = now() WHERE user_id = $1 AND token = $2`,
		userID, current, next)
	if err != nil {
		return false, pkgerrors.Wrap(err, "[Registry.CompareAndSwap]")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, pkgerrors.Wrap(err, "[Registry.CompareAndSwap] rows affected")
	}
	return n == 1, nil
}
