package fakecategoryrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-expense-tracker/categories"
	"github.com/jrsteele09/go-expense-tracker/internal/errors"
)

var _ categories.Repo = (*FakeCategoryRepo)(nil)

type FakeCategoryRepo struct {
	categories map[int64]*categories.Category
	nextID     int64
	now        func() time.Time
	lock       sync.RWMutex
}

func NewFakeCategoryRepo() *FakeCategoryRepo {
	return &FakeCategoryRepo{
		categories: make(map[int64]*categories.Category),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *FakeCategoryRepo) nameTaken(name string, exceptID int64) bool {
	for id, c := range r.categories {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *FakeCategoryRepo) Create(_ context.Context, category *categories.Category) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.nameTaken(category.Name, 0) {
		return errors.Conflict("Category name already exists")
	}
	r.nextID++
	now := r.now()
	category.ID = r.nextID
	category.CreatedAt = now
	category.UpdatedAt = now

	stored := *category
	r.categories[category.ID] = &stored
	return nil
}

func (r *FakeCategoryRepo) List(_ context.Context) ([]*categories.Category, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*categories.Category, 0, len(r.categories))
	for _, c := range r.categories {
		cp := *c
		list = append(list, &cp)
	}
	// Newest first, ties broken by id so the order is stable
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *FakeCategoryRepo) GetByID(_ context.Context, id int64) (*categories.Category, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, errors.NotFound("Category not found")
	}
	cp := *c
	return &cp, nil
}

func (r *FakeCategoryRepo) GetByName(_ context.Context, name string) (*categories.Category, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Category not found")
}

func (r *FakeCategoryRepo) Update(_ context.Context, category *categories.Category) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.categories[category.ID]
	if !ok {
		return errors.NotFound("Category not found")
	}
	if r.nameTaken(category.Name, category.ID) {
		return errors.Conflict("Category name already exists")
	}
	stored.Name = category.Name
	stored.UpdatedAt = r.now()
	category.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *FakeCategoryRepo) Delete(_ context.Context, id int64) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.categories[id]; !ok {
		return errors.NotFound("Category not found")
	}
	delete(r.categories, id)
	return nil
}
