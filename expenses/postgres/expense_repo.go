package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-expense-tracker/expenses"
	"github.com/jrsteele09/go-expense-tracker/internal/db"
	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	pkgerrors "github.com/pkg/errors"
)

var _ expenses.Repo = (*ExpenseRepo)(nil)

const selectExpense = `SELECT e.id, e.user_id, e.category_id, e.amount, e.currency, e.note, e.spent_at,
	e.created_at, e.updated_at, c.name
	FROM expenses e LEFT JOIN categories c ON c.id = e.category_id`

// ExpenseRepo stores expenses in the expenses table
type ExpenseRepo struct {
	db *sql.DB
}

func NewExpenseRepo(db *sql.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

func (r *ExpenseRepo) Create(ctx context.Context, expense *expenses.Expense) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (user_id, category_id, amount, currency, note, spent_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		expense.UserID, expense.CategoryID, expense.Amount, expense.Currency, expense.Note, expense.SpentAt,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return errors.BadRequest("Category or user does not exist", err)
		}
		return pkgerrors.Wrap(err, "[ExpenseRepo.Create]")
	}
	return r.fillCategory(ctx, expense)
}

// where builds the filter clause for q, numbering placeholders from 1
func where(q expenses.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if q.UserID != nil {
		add("e.user_id = $%d", *q.UserID)
	}
	if q.CategoryID != nil {
		add("e.category_id = $%d", *q.CategoryID)
	}
	if q.Currency != "" {
		add("e.currency = $%d", q.Currency)
	}
	if q.StartDate != nil {
		add("e.spent_at >= $%d", *q.StartDate)
	}
	if q.EndDate != nil {
		add("e.spent_at <= $%d", *q.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *ExpenseRepo) List(ctx context.Context, q expenses.Query) ([]*expenses.Expense, int, error) {
	clause, args := where(q)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM expenses e`+clause, args...).Scan(&total); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "[ExpenseRepo.List] count")
	}

	n := len(args)
	query := fmt.Sprintf("%s%s ORDER BY e.created_at DESC, e.id DESC LIMIT $%d OFFSET $%d", selectExpense, clause, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "[ExpenseRepo.List]")
	}
	defer rows.Close()

	list := []*expenses.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(err, "[ExpenseRepo.List] scan")
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "[ExpenseRepo.List] rows")
	}
	return list, total, nil
}

func (r *ExpenseRepo) GetByID(ctx context.Context, id int64) (*expenses.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectExpense+` WHERE e.id = $1`, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("Expense not found")
		}
		return nil, pkgerrors.Wrap(err, "[ExpenseRepo.GetByID]")
	}
	return e, nil
}

func (r *ExpenseRepo) Update(ctx context.Context, expense *expenses.Expense) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE expenses SET category_id = $1, amount = $2, currency = $3, note = $4, spent_at = $5, updated_at = now()
		 WHERE id = $6 RETURNING updated_at`,
		expense.CategoryID, expense.Amount, expense.Currency, expense.Note, expense.SpentAt, expense.ID,
	).Scan(&expense.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, sql.ErrNoRows):
		return errors.NotFound("Expense not found")
	case db.IsForeignKeyViolation(err):
		return errors.BadRequest("Category does not exist", err)
	}
	return pkgerrors.Wrap(err, "[ExpenseRepo.Update]")
}

func (r *ExpenseRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return pkgerrors.Wrap(err, "[ExpenseRepo.Delete]")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "[ExpenseRepo.Delete] rows affected")
	}
	if n == 0 {
		return errors.NotFound("Expense not found")
	}
	return nil
}

func (r *ExpenseRepo) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM expenses WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, pkgerrors.Wrap(err, "[ExpenseRepo.CountByCategory]")
	}
	return n, nil
}

func (r *ExpenseRepo) fillCategory(ctx context.Context, e *expenses.Expense) error {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = $1`, e.CategoryID).Scan(&name)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return pkgerrors.Wrap(err, "[ExpenseRepo] category name")
	}
	e.Category = &expenses.CategoryRef{ID: e.CategoryID, Name: name}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*expenses.Expense, error) {
	var (
		e            expenses.Expense
		note         sql.NullString
		categoryName sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Amount, &e.Currency, &note, &e.SpentAt,
		&e.CreatedAt, &e.UpdatedAt, &categoryName)
	if err != nil {
		return nil, err
	}
	if note.Valid {
		e.Note = &note.String
	}
	if categoryName.Valid {
		e.Category = &expenses.CategoryRef{ID: e.CategoryID, Name: categoryName.String}
	}
	return &e, nil
}
