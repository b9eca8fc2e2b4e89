package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jrsteele09/go-expense-tracker/internal/db"
	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/users"
	pkgerrors "github.com/pkg/errors"
)

var _ users.UserRepo = (*UserRepo)(nil)

const userColumns = "id, email, name, password_hash, role, created_at, updated_at"

// UserRepo stores users in the users table
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	user.Email = users.NormalizeEmail(user.Email)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, name, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		user.Email, user.Name, user.PasswordHash, string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errors.Conflict("Email already exists", err)
		}
		return pkgerrors.Wrap(err, "[UserRepo.Create]")
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, users.NormalizeEmail(email))
	return scanUser(row, "[UserRepo.GetByEmail]")
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "[UserRepo.GetByID]")
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return pkgerrors.Wrap(err, "[UserRepo.UpdatePasswordHash]")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "[UserRepo.UpdatePasswordHash] rows affected")
	}
	if n == 0 {
		return errors.NotFound("User not found")
	}
	return nil
}

func scanUser(row *sql.Row, op string) (*users.User, error) {
	var (
		u    users.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("User not found")
		}
		return nil, pkgerrors.Wrap(err, op)
	}
	u.Role = users.Role(role)
	return &u, nil
}
