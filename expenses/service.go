package expenses

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/pkg/errors"
)

const msgExpenseNotFound = "Expense not found"

// Service manages expenses. Members see their own expenses, admins see everyone's,
// and only the owner may change or delete an expense.
type Service struct {
	repo       Repo
	categories CategoryChecker
}

func NewService(repo Repo, categories CategoryChecker) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[expenses.NewService] repo is required")
	}
	if categories == nil {
		return nil, errors.New("[expenses.NewService] category checker is required")
	}
	return &Service{repo: repo, categories: categories}, nil
}

func (s *Service) Create(ctx context.Context, caller Caller, params CreateParameters) (*Expense, error) {
	e, err := params.toExpense()
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, e.CategoryID); err != nil {
		return nil, err
	}
	e.UserID = caller.UserID
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, errors.Wrap(err, "[expenses.Service.Create]")
	}
	return e, nil
}

// List returns a page of the expenses visible to caller and the total match count
func (s *Service) List(ctx context.Context, caller Caller, q Query) ([]*Expense, int, error) {
	if !caller.seesAll() {
		id := caller.UserID
		q.UserID = &id
	}
	list, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[expenses.Service.List]")
	}
	return list, total, nil
}

func (s *Service) Get(ctx context.Context, caller Caller, id int64) (*Expense, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.seesAll() && e.UserID != caller.UserID {
		return nil, apperrors.NotFound(msgExpenseNotFound)
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, caller Caller, id int64, params UpdateParameters) (*Expense, error) {
	e, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	previousCategory := e.CategoryID
	if err := params.apply(e); err != nil {
		return nil, err
	}
	if e.CategoryID != previousCategory {
		if err := s.requireCategory(ctx, e.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, e); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(msgExpenseNotFound)
		}
		return nil, errors.Wrap(err, "[expenses.Service.Update]")
	}
	return s.load(ctx, id)
}

func (s *Service) Delete(ctx context.Context, caller Caller, id int64) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound(msgExpenseNotFound)
		}
		return errors.Wrap(err, "[expenses.Service.Delete]")
	}
	return nil
}

// CountByCategory lets the category service refuse to delete a category in use
func (s *Service) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	return s.repo.CountByCategory(ctx, categoryID)
}

func (s *Service) load(ctx context.Context, id int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(msgExpenseNotFound)
		}
		return nil, errors.Wrap(err, "[expenses.Service] GetByID")
	}
	return e, nil
}

// owned loads an expense the caller owns. Someone else's expense is reported as missing.
func (s *Service) owned(ctx context.Context, caller Caller, id int64) (*Expense, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != caller.UserID {
		return nil, apperrors.NotFound(msgExpenseNotFound)
	}
	return e, nil
}

func (s *Service) requireCategory(ctx context.Context, id int64) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return errors.Wrap(err, "[expenses.Service] category lookup")
	}
	if !ok {
		return apperrors.BadRequest(fmt.Sprintf("Category with ID %d does not exist", id))
	}
	return nil
}
