package app

import (
	"context"
	"fmt"
	"menuo/domain"
	"menuo/pkg/httperror"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// CategoryStore holds the ordered category list and the selected category.
// The selection drives the ProductStore.
type CategoryStore struct {
	repository Repository
	products   *ProductStore

	mu          sync.Mutex
	categories  []domain.Category
	selected    int64
	hasSelected bool
}

func NewCategoryStore(repository Repository, products *ProductStore) *CategoryStore {
	return &CategoryStore{
		repository: repository,
		products:   products,
		categories: []domain.Category{},
	}
}

func (s *CategoryStore) Categories() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *CategoryStore) Selected() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.hasSelected
}

// Refresh replaces the list. A selection that is still listed is kept,
// otherwise the first category becomes selected. The product list follows
// the selection and is refetched unless it already holds a successful load
// of that category.
func (s *CategoryStore) Refresh(ctx context.Context) error {
	categories, err := s.repository.ListCategories(ctx)
	if err != nil {
		zap.L().Warn("Failed to fetch categories", zap.Error(err))
		return fmt.Errorf("refresh categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	s.mu.Lock()
	s.categories = categories
	if len(categories) == 0 {
		s.selected, s.hasSelected = 0, false
	} else if !s.hasSelected || domain.IndexOfCategory(categories, s.selected) < 0 {
		s.selected, s.hasSelected = categories[0].ID, true
	}
	selected, hasSelected := s.selected, s.hasSelected
	s.mu.Unlock()

	zap.L().Debug("Categories refreshed", zap.Int("count", len(categories)))

	if !hasSelected {
		s.products.Clear()
		return nil
	}
	if s.products.Loaded(selected) {
		return nil
	}
	return s.loadProducts(ctx, selected)
}

// Select makes id the selected category and loads its products. id is not
// checked against the list.
func (s *CategoryStore) Select(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.selected, s.hasSelected = id, true
	s.mu.Unlock()

	return s.loadProducts(ctx, id)
}

func (s *CategoryStore) Create(ctx context.Context, name string) (domain.Category, error) {
	name, err := categoryName("categories.create", name)
	if err != nil {
		return domain.Category{}, err
	}

	category, err := s.repository.CreateCategory(ctx, name)
	if err != nil {
		zap.L().Warn("Failed to create category", zap.String("name", name), zap.Error(err))
		return domain.Category{}, err
	}

	zap.L().Info("Category created", zap.Int64("categoryId", category.ID))
	return category, refreshed(s.Refresh(ctx))
}

func (s *CategoryStore) Update(ctx context.Context, id int64, name string) (domain.Category, error) {
	name, err := categoryName("categories.update", name)
	if err != nil {
		return domain.Category{}, err
	}

	category, err := s.repository.UpdateCategory(ctx, id, name)
	if err != nil {
		if httperror.IsNotFound(err) {
			s.forget(id)
		}
		zap.L().Warn("Failed to update category", zap.Int64("categoryId", id), zap.Error(err))
		return domain.Category{}, err
	}

	zap.L().Info("Category updated", zap.Int64("categoryId", id))
	return category, refreshed(s.Refresh(ctx))
}

func (s *CategoryStore) Remove(ctx context.Context, id int64) error {
	if err := s.repository.DeleteCategory(ctx, id); err != nil {
		if httperror.IsNotFound(err) {
			s.forget(id)
		}
		zap.L().Warn("Failed to delete category", zap.Int64("categoryId", id), zap.Error(err))
		return err
	}

	zap.L().Info("Category deleted", zap.Int64("categoryId", id))
	return refreshed(s.Refresh(ctx))
}

func (s *CategoryStore) loadProducts(ctx context.Context, id int64) error {
	err := s.products.Refresh(ctx, id)
	if httperror.IsNotFound(err) {
		s.forget(id)
	}
	return err
}

// forget drops a category the server no longer knows about.
func (s *CategoryStore) forget(id int64) {
	s.mu.Lock()
	kept := s.categories[:0:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	cleared := s.hasSelected && s.selected == id
	if cleared {
		s.selected, s.hasSelected = 0, false
	}
	s.mu.Unlock()

	if cleared {
		s.products.Clear()
	}
	zap.L().Info("Dropped stale category", zap.Int64("categoryId", id), zap.Bool("selectionCleared", cleared))
}

func categoryName(code, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", httperror.UnprocessableEntity(code, "invalid input", map[string][]string{
			"name": {"is required"},
		})
	}
	return name, nil
}
