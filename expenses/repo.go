package expenses

import "context"

// Repo stores expenses. Reads fill in Expense.Category. Implementations return
// errors.ErrNotFound for unknown ids.
type Repo interface {
	Create(ctx context.Context, expense *Expense) error
	// List returns one page of matches, newest first, and the total number of matches
	List(ctx context.Context, q Query) ([]*Expense, int, error)
	GetByID(ctx context.Context, id int64) (*Expense, error)
	Update(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, id int64) error
	CountByCategory(ctx context.Context, categoryID int64) (int, error)
}

// CategoryChecker confirms a category exists before an expense refers to it
type CategoryChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
