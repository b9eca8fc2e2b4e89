package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jrsteele09/go-expense-tracker/categories"
	"github.com/jrsteele09/go-expense-tracker/internal/db"
	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	pkgerrors "github.com/pkg/errors"
)

var _ categories.Repo = (*CategoryRepo)(nil)

const categoryColumns = "id, name, created_at, updated_at"

// CategoryRepo stores categories in the categories table
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Create(ctx context.Context, category *categories.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at, updated_at`,
		category.Name,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errors.Conflict("Category name already exists", err)
		}
		return pkgerrors.Wrap(err, "[CategoryRepo.Create]")
	}
	return nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]*categories.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[CategoryRepo.List]")
	}
	defer rows.Close()

	list := []*categories.Category{}
	for rows.Next() {
		var c categories.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "[CategoryRepo.List] scan")
		}
		list = append(list, &c)
	}
	return list, pkgerrors.Wrap(rows.Err(), "[CategoryRepo.List] rows")
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*categories.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row, "[CategoryRepo.GetByID]")
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*categories.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE lower(name) = lower($1)`, name)
	return scanCategory(row, "[CategoryRepo.GetByName]")
}

func (r *CategoryRepo) Update(ctx context.Context, category *categories.Category) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE categories SET name = $1, updated_at = now() WHERE id = $2 RETURNING updated_at`,
		category.Name, category.ID,
	).Scan(&category.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, sql.ErrNoRows):
		return errors.NotFound("Category not found")
	case db.IsUniqueViolation(err):
		return errors.Conflict("Category name already exists", err)
	}
	return pkgerrors.Wrap(err, "[CategoryRepo.Update]")
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return errors.Conflict("Category is referenced by expenses", err)
		}
		return pkgerrors.Wrap(err, "[CategoryRepo.Delete]")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "[CategoryRepo.Delete] rows affected")
	}
	if n == 0 {
		return errors.NotFound("Category not found")
	}
	return nil
}

func scanCategory(row *sql.Row, op string) (*categories.Category, error) {
	var c categories.Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("Category not found")
		}
		return nil, pkgerrors.Wrap(err, op)
	}
	return &c, nil
}
