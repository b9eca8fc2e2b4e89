package expenses

import (
	"regexp"
	"strings"
	"time"

	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/users"
)

const maxNoteLength = 500

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// CategoryRef is the part of a category embedded in an expense response
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Expense struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"` // Owner
	CategoryID int64        `json:"categoryId"`
	Amount     float64      `json:"amount"`   // Always positive
	Currency   string       `json:"currency"` // ISO 4217 code, upper case
	Note       *string      `json:"note"`
	SpentAt    time.Time    `json:"spentAt"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Category   *CategoryRef `json:"category,omitempty"`
}

// Caller is the authenticated user an operation runs on behalf of
type Caller struct {
	UserID int64
	Role   users.Role
}

// seesAll reports whether the caller may read other users' expenses
func (c Caller) seesAll() bool {
	return c.Role == users.RoleAdmin
}

// CreateParameters is the body of POST /expenses
type CreateParameters struct {
	CategoryID int64   `json:"categoryId"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Note       *string `json:"note"`
	SpentAt    string  `json:"spentAt"`
}

// UpdateParameters is the body of PUT /expenses/{id}. Nil fields are left unchanged.
type UpdateParameters struct {
	CategoryID *int64   `json:"categoryId"`
	Amount     *float64 `json:"amount"`
	Currency   *string  `json:"currency"`
	Note       *string  `json:"note"`
	SpentAt    *string  `json:"spentAt"`
}

func (p *CreateParameters) toExpense() (*Expense, error) {
	if p.CategoryID <= 0 {
		return nil, errors.BadRequest("categoryId must be a positive integer")
	}
	e := &Expense{CategoryID: p.CategoryID}
	if err := setAmount(e, p.Amount); err != nil {
		return nil, err
	}
	if err := setCurrency(e, p.Currency); err != nil {
		return nil, err
	}
	if err := setNote(e, p.Note); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.SpentAt) == "" {
		return nil, errors.BadRequest("spentAt is required")
	}
	if err := setSpentAt(e, p.SpentAt); err != nil {
		return nil, err
	}
	return e, nil
}

// apply copies the set fields onto e
func (p *UpdateParameters) apply(e *Expense) error {
	if p.CategoryID != nil {
		if *p.CategoryID <= 0 {
			return errors.BadRequest("categoryId must be a positive integer")
		}
		e.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		if err := setAmount(e, *p.Amount); err != nil {
			return err
		}
	}
	if p.Currency != nil {
		if err := setCurrency(e, *p.Currency); err != nil {
			return err
		}
	}
	if p.Note != nil {
		if err := setNote(e, p.Note); err != nil {
			return err
		}
	}
	if p.SpentAt != nil {
		if err := setSpentAt(e, *p.SpentAt); err != nil {
			return err
		}
	}
	return nil
}

func setAmount(e *Expense, amount float64) error {
	if !(amount > 0) {
		return errors.BadRequest("amount must be a positive number")
	}
	e.Amount = amount
	return nil
}

func setCurrency(e *Expense, currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !currencyPattern.MatchString(currency) {
		return errors.BadRequest("currency must be a 3 letter ISO 4217 code")
	}
	e.Currency = currency
	return nil
}

func setNote(e *Expense, note *string) error {
	if note == nil {
		e.Note = nil
		return nil
	}
	n := strings.TrimSpace(*note)
	if len(n) > maxNoteLength {
		return errors.BadRequest("note must not exceed 500 characters")
	}
	if n == "" {
		e.Note = nil
		return nil
	}
	e.Note = &n
	return nil
}

func setSpentAt(e *Expense, value string) error {
	t, err := ParseDate(value)
	if err != nil {
		return errors.BadRequest("spentAt must be an ISO 8601 date", err)
	}
	e.SpentAt = t
	return nil
}

// ParseDate accepts an RFC 3339 timestamp or a bare yyyy-mm-dd date, returned in UTC
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
