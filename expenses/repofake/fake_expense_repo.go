package fakeexpenserepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-expense-tracker/categories"
	"github.com/jrsteele09/go-expense-tracker/expenses"
	"github.com/jrsteele09/go-expense-tracker/internal/errors"
)

var _ expenses.Repo = (*FakeExpenseRepo)(nil)

type FakeExpenseRepo struct {
	expenses   map[int64]*expenses.Expense
	categories categories.Repo // Optional, used to fill in Expense.Category
	nextID     int64
	lock       sync.RWMutex
}

func NewFakeExpenseRepo(categoryRepo categories.Repo) *FakeExpenseRepo {
	return &FakeExpenseRepo{
		expenses:   make(map[int64]*expenses.Expense),
		categories: categoryRepo,
	}
}

func (r *FakeExpenseRepo) Create(ctx context.Context, expense *expenses.Expense) error {
	r.lock.Lock()
	r.nextID++
	now := time.Now().UTC()
	expense.ID = r.nextID
	expense.CreatedAt = now
	expense.UpdatedAt = now
	r.expenses[expense.ID] = copyExpense(expense)
	r.lock.Unlock()

	expense.Category = r.categoryRef(ctx, expense.CategoryID)
	return nil
}

func (r *FakeExpenseRepo) List(ctx context.Context, q expenses.Query) ([]*expenses.Expense, int, error) {
	r.lock.RLock()
	matches := make([]*expenses.Expense, 0)
	for _, e := range r.expenses {
		if matchesQuery(e, q) {
			matches = append(matches, copyExpense(e))
		}
	}
	r.lock.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	total := len(matches)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	page := matches[start:end]
	for _, e := range page {
		e.Category = r.categoryRef(ctx, e.CategoryID)
	}
	return page, total, nil
}

func (r *FakeExpenseRepo) GetByID(ctx context.Context, id int64) (*expenses.Expense, error) {
	r.lock.RLock()
	stored, ok := r.expenses[id]
	var e *expenses.Expense
	if ok {
		e = copyExpense(stored)
	}
	r.lock.RUnlock()

	if !ok {
		return nil, errors.NotFound("Expense not found")
	}
	e.Category = r.categoryRef(ctx, e.CategoryID)
	return e, nil
}

func (r *FakeExpenseRepo) Update(_ context.Context, expense *expenses.Expense) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.expenses[expense.ID]
	if !ok {
		return errors.NotFound("Expense not found")
	}
	updated := copyExpense(expense)
	updated.UserID = stored.UserID
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.expenses[expense.ID] = updated
	expense.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *FakeExpenseRepo) Delete(_ context.Context, id int64) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.expenses[id]; !ok {
		return errors.NotFound("Expense not found")
	}
	delete(r.expenses, id)
	return nil
}

func (r *FakeExpenseRepo) CountByCategory(_ context.Context, categoryID int64) (int, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	n := 0
	for _, e := range r.expenses {
		if e.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *FakeExpenseRepo) categoryRef(ctx context.Context, id int64) *expenses.CategoryRef {
	if r.categories == nil {
		return nil
	}
	c, err := r.categories.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return &expenses.CategoryRef{ID: c.ID, Name: c.Name}
}

func matchesQuery(e *expenses.Expense, q expenses.Query) bool {
	switch {
	case q.UserID != nil && e.UserID != *q.UserID:
		return false
	case q.CategoryID != nil && e.CategoryID != *q.CategoryID:
		return false
	case q.Currency != "" && e.Currency != q.Currency:
		return false
	case q.StartDate != nil && e.SpentAt.Before(*q.StartDate):
		return false
	case q.EndDate != nil && e.SpentAt.After(*q.EndDate):
		return false
	}
	return true
}

func copyExpense(e *expenses.Expense) *expenses.Expense {
	c := *e
	if e.Note != nil {
		n := *e.Note
		c.Note = &n
	}
	c.Category = nil
	return &c
}
