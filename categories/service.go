package categories

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Service manages the shared category list. Role checks belong to the routes.
type Service struct {
	repo  Repo
	usage UsageCounter
}

func NewService(repo Repo, usage UsageCounter) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[categories.NewService] repo is required")
	}
	if usage == nil {
		return nil, errors.New("[categories.NewService] usage counter is required")
	}
	return &Service{repo: repo, usage: usage}, nil
}

func (s *Service) Create(ctx context.Context, params Parameters) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Category{Name: params.Name}
	if err := s.repo.Create(ctx, c); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, duplicateName(params.Name, err)
		}
		return nil, errors.Wrap(err, "[categories.Service.Create]")
	}
	log.Info().Int64("categoryId", c.ID).Str("name", c.Name).Msg("category created")
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*Category, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[categories.Service.List]")
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, errors.Wrap(err, "[categories.Service.Get]")
	}
	return c, nil
}

// Exists reports whether a category with id exists
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.exists(s.repo.GetByID(ctx, id))
}

// ExistsByName reports whether a category called name exists
func (s *Service) ExistsByName(ctx context.Context, name string) (bool, error) {
	return s.exists(s.repo.GetByName(ctx, name))
}

func (s *Service) exists(_ *Category, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, errors.Wrap(err, "[categories.Service.Exists]")
}

func (s *Service) Update(ctx context.Context, id int64, params Parameters) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, params.Name)
	switch {
	case err == nil && existing.ID != id:
		return nil, duplicateName(params.Name)
	case err != nil && !apperrors.Is(err, apperrors.ErrNotFound):
		return nil, errors.Wrap(err, "[categories.Service.Update] GetByName")
	}

	c.Name = params.Name
	if err := s.repo.Update(ctx, c); err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrConflict):
			return nil, duplicateName(params.Name, err)
		case apperrors.Is(err, apperrors.ErrNotFound):
			return nil, notFound(id)
		}
		return nil, errors.Wrap(err, "[categories.Service.Update]")
	}
	return c, nil
}

// Delete removes a category no expense refers to
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.usage.CountByCategory(ctx, id)
	if err != nil {
		return errors.Wrap(err, "[categories.Service.Delete] CountByCategory")
	}
	if n > 0 {
		return inUse(id, n)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrNotFound):
			return notFound(id)
		case apperrors.Is(err, apperrors.ErrConflict):
			// An expense was added between the count and the delete
			return apperrors.Conflict(fmt.Sprintf("Cannot delete category with ID %d as it has related expenses", id), err)
		}
		return errors.Wrap(err, "[categories.Service.Delete]")
	}
	log.Info().Int64("categoryId", id).Msg("category deleted")
	return nil
}

func notFound(id int64) error {
	return apperrors.NotFound(fmt.Sprintf("Category with ID %d not found", id))
}

func duplicateName(name string, cause ...error) error {
	return apperrors.Conflict(fmt.Sprintf("Category with name '%s' already exists", name), cause...)
}

func inUse(id int64, n int) error {
	return apperrors.Conflict(fmt.Sprintf("Cannot delete category with ID %d as it has %d related expense(s)", id, n))
}
