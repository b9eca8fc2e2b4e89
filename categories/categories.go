package categories

import (
	"strings"
	"time"

	"github.com/jrsteele09/go-expense-tracker/internal/errors"
)

const (
	minNameLength = 2
	maxNameLength = 50
)

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"` // Unique across all categories
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Parameters is the body of POST /categories and PATCH /categories/{id}
type Parameters struct {
	Name string `json:"name"`
}

// Validate trims the name in place and checks its length
func (p *Parameters) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return errors.BadRequest("Category name is required")
	case len(p.Name) < minNameLength:
		return errors.BadRequest("Category name must be at least 2 characters long")
	case len(p.Name) > maxNameLength:
		return errors.BadRequest("Category name must not exceed 50 characters")
	}
	return nil
}
