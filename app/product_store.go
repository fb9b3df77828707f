package app

import (
	"context"
	"fmt"
	"menuo/domain"
	"menuo/pkg/httperror"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductForm is what the admin edits. A zero ID submits a new product.
type ProductForm struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Image       *domain.Upload
}

func ProductFormFrom(p domain.Product) ProductForm {
	return ProductForm{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}

// ProductStore holds the products of one category.
//
// Every Refresh bumps a generation counter; a response that arrives after a
// newer Refresh started is dropped, so the list always belongs to the
// category that was requested last.
type ProductStore struct {
	repository Repository
	archive    AssetArchive

	mu          sync.Mutex
	products    []domain.Product
	categoryID  int64
	hasCategory bool
	loaded      bool
	generation  uint64
	loading     bool
}

// NewProductStore builds an empty store. archive may be nil.
func NewProductStore(repository Repository, archive AssetArchive) *ProductStore {
	return &ProductStore{
		repository: repository,
		archive:    archive,
		products:   []domain.Product{},
	}
}

func (s *ProductStore) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// CategoryID is the category the store displays.
func (s *ProductStore) CategoryID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryID, s.hasCategory
}

// Loaded reports whether the products of categoryID are on display and
// came from a fetch that succeeded.
func (s *ProductStore) Loaded(categoryID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasCategory && s.loaded && s.categoryID == categoryID
}

func (s *ProductStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Refresh replaces the list with the products of categoryID.
func (s *ProductStore) Refresh(ctx context.Context, categoryID int64) error {
	s.mu.Lock()
	s.categoryID, s.hasCategory = categoryID, true
	s.loaded = false
	s.generation++
	generation := s.generation
	s.loading = true
	s.mu.Unlock()

	products, err := s.repository.ListProducts(ctx, categoryID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		zap.L().Debug("Discarding stale products response",
			zap.Int64("categoryId", categoryID),
			zap.Uint64("generation", generation),
		)
		return nil
	}
	s.loading = false

	if err != nil {
		if httperror.IsNotFound(err) {
			s.products = []domain.Product{}
		}
		zap.L().Warn("Failed to fetch products", zap.Int64("categoryId", categoryID), zap.Error(err))
		return fmt.Errorf("refresh products of category %d: %w", categoryID, err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	s.products = products
	s.loaded = true

	zap.L().Debug("Products refreshed", zap.Int64("categoryId", categoryID), zap.Int("count", len(products)))
	return nil
}

// Clear forgets the displayed category. A fetch still in flight is dropped.
func (s *ProductStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.products = []domain.Product{}
	s.categoryID, s.hasCategory = 0, false
	s.loaded = false
	s.loading = false
}

// Submit creates or updates a product in the displayed category and then
// refreshes the list.
func (s *ProductStore) Submit(ctx context.Context, form ProductForm) (domain.Product, error) {
	const code = "products.submit"

	categoryID, ok := s.CategoryID()
	if !ok {
		return domain.Product{}, httperror.UnprocessableEntity(code, "no category is selected", nil)
	}

	req := &SubmitProductRequest{
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		CategoryID:  categoryID,
		Image:       form.Image,
	}
	if err := validate.Struct(req); err != nil {
		return domain.Product{}, invalid(code, err)
	}
	if req.Price.IsNegative() {
		return domain.Product{}, httperror.UnprocessableEntity(code, "invalid input", map[string][]string{
			"Price": {"must not be negative"},
		})
	}

	var archived string
	if !req.Image.Empty() {
		archived = archive(ctx, s.archive, productImageKey(categoryID, req.Image), req.Image)
	}

	var (
		product domain.Product
		err     error
	)
	if form.ID != 0 {
		product, err = s.repository.UpdateProduct(ctx, form.ID, req)
	} else {
		product, err = s.repository.CreateProduct(ctx, req)
	}
	if err != nil {
		discard(ctx, s.archive, archived)
		if form.ID != 0 && httperror.IsNotFound(err) {
			s.forget(form.ID)
		}
		zap.L().Warn("Failed to submit product",
			zap.Int64("productId", form.ID),
			zap.Int64("categoryId", categoryID),
			zap.Error(err),
		)
		return domain.Product{}, err
	}

	zap.L().Info("Product saved",
		zap.Int64("productId", product.ID),
		zap.Int64("categoryId", categoryID),
		zap.Bool("created", form.ID == 0),
	)

	return product, refreshed(s.Refresh(ctx, categoryID))
}

// Remove deletes a product and refreshes the displayed category.
func (s *ProductStore) Remove(ctx context.Context, id int64) error {
	if err := s.repository.DeleteProduct(ctx, id); err != nil {
		if httperror.IsNotFound(err) {
			s.forget(id)
		}
		zap.L().Warn("Failed to delete product", zap.Int64("productId", id), zap.Error(err))
		return err
	}

	zap.L().Info("Product deleted", zap.Int64("productId", id))

	categoryID, ok := s.CategoryID()
	if !ok {
		return nil
	}
	return refreshed(s.Refresh(ctx, categoryID))
}

func (s *ProductStore) forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.products[:0:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
}

func productImageKey(categoryID int64, image *domain.Upload) string {
	return "products/" + strconv.FormatInt(categoryID, 10) + "/" + uuid.New().String() + image.Extension()
}

// archive copies an upload into the asset archive and returns the key it was
// stored under, or "" when nothing was stored. The upload to the API goes
// ahead whatever happens here.
func archive(ctx context.Context, a AssetArchive, key string, upload *domain.Upload) string {
	if a == nil || upload.Empty() {
		return ""
	}
	if err := a.Archive(ctx, key, upload); err != nil {
		zap.L().Warn("Failed to archive asset", zap.String("key", key), zap.Error(err))
		return ""
	}
	zap.L().Debug("Asset archived", zap.String("key", key), zap.Int("size", len(upload.Content)))
	return key
}

// discard drops an archived copy after the API refused the upload.
func discard(ctx context.Context, a AssetArchive, key string) {
	if a == nil || key == "" {
		return
	}
	if err := a.Discard(ctx, key); err != nil {
		zap.L().Warn("Failed to discard archived asset", zap.String("key", key), zap.Error(err))
	}
}
