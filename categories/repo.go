package categories

import "context"

// Repo stores categories. Implementations return errors.ErrNotFound for unknown ids or
// names and errors.ErrConflict for a duplicate name.
type Repo interface {
	Create(ctx context.Context, category *Category) error
	// List returns the newest categories first
	List(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	// Update renames the category and refreshes UpdatedAt
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id int64) error
}

// UsageCounter reports how many expenses reference a category
type UsageCounter interface {
	CountByCategory(ctx context.Context, categoryID int64) (int, error)
}
