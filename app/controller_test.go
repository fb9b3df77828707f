package app

import (
	"context"
	"errors"
	"menuo/domain"
	"menuo/pkg/httperror"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	repo       *stubRepository
	categories *CategoryStore
	products   *ProductStore
	settings   *SettingsStore
	publisher  *recordingPublisher
	prompts    []string
	answer     bool
	controller *Controller
}

func newControllerFixture(categories ...domain.Category) *controllerFixture {
	f := &controllerFixture{
		repo:      newStubRepository(),
		publisher: &recordingPublisher{},
	}
	f.repo.categories = categories
	f.products = NewProductStore(f.repo, nil)
	f.categories = NewCategoryStore(f.repo, f.products)
	f.settings = NewSettingsStore(f.repo, domain.LatestSettings, nil)
	f.controller = NewController(ControllerConfig{
		Categories: f.categories,
		Products:   f.products,
		Settings:   f.settings,
		Confirmer: ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
			f.prompts = append(f.prompts, prompt)
			return f.answer, nil
		}),
		EventPublisher: f.publisher,
		Service:        "menuo",
	})
	return f
}

func TestController_SubmitNewProduct(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"})
	ctx := context.Background()
	require.NoError(t, f.categories.Refresh(ctx))

	require.NoError(t, f.controller.SetProductForm(ProductForm{Name: "Mango", Price: decimal.NewFromInt(12)}))
	assert.Equal(t, FormEditing, f.controller.ProductForm().State)

	product, err := f.controller.SubmitProduct(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Mango", product.Name)
	assert.Equal(t, []string{"ListCategories", "ListProducts(1)", "CreateProduct", "ListProducts(1)"}, f.repo.Calls())
	require.Len(t, f.repo.productRequests, 1)
	req := f.repo.productRequests[0]
	assert.Equal(t, int64(1), req.CategoryID)
	assert.True(t, decimal.NewFromInt(12).Equal(req.Price))
	assert.Nil(t, req.Image)

	assert.Equal(t, Form[ProductForm]{}, f.controller.ProductForm())
	assert.Equal(t, []string{"product.created.v1"}, f.publisher.routingKeys())
}

func TestController_SubmitProductFailureKeepsValues(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"})
	ctx := context.Background()
	require.NoError(t, f.categories.Refresh(ctx))
	f.repo.errs["CreateProduct"] = httperror.UnprocessableEntity("products.create", "The image must be an image.", nil)

	values := ProductForm{Name: "Mango", Price: decimal.NewFromInt(12)}
	require.NoError(t, f.controller.SetProductForm(values))
	_, err := f.controller.SubmitProduct(ctx)

	require.Error(t, err)
	form := f.controller.ProductForm()
	assert.Equal(t, FormEditing, form.State)
	assert.Equal(t, values, form.Values)
	assert.Equal(t, err, form.Err)
	assert.Equal(t, 1, f.repo.count("ListProducts(1)"), "no refresh after a failed write")
	assert.Empty(t, f.publisher.routingKeys())
}

func TestController_EditProductUpdates(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"})
	ctx := context.Background()
	require.NoError(t, f.categories.Refresh(ctx))

	require.NoError(t, f.controller.EditProduct(domain.Product{ID: 10, Name: "Mango", Price: decimal.NewFromInt(12), CategoryID: 1}))
	assert.Equal(t, int64(10), f.controller.ProductForm().Values.ID)

	_, err := f.controller.SubmitProduct(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.count("UpdateProduct(10)"))
	assert.Equal(t, []string{"product.updated.v1"}, f.publisher.routingKeys())
}

func TestController_SubmitCategory(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"})
	ctx := context.Background()

	require.NoError(t, f.controller.SetCategoryName("Cocktails"))
	created, err := f.controller.SubmitCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, FormIdle, f.controller.CategoryForm().State)

	require.NoError(t, f.controller.EditCategory(created))
	require.NoError(t, f.controller.SetCategoryName("Mocktails"))
	_, err = f.controller.SubmitCategory(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.count("UpdateCategory(101)"))
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Juices"}, {ID: 101, Name: "Mocktails"}}, f.categories.Categories())
	assert.Equal(t, []string{"category.created.v1", "category.updated.v1"}, f.publisher.routingKeys())
}

func TestController_SubmitCategoryRejectsBlankName(t *testing.T) {
	f := newControllerFixture()

	require.NoError(t, f.controller.SetCategoryName("  "))
	_, err := f.controller.SubmitCategory(context.Background())

	assert.True(t, httperror.IsValidation(err))
	assert.Equal(t, FormEditing, f.controller.CategoryForm().State)
	assert.Empty(t, f.repo.Calls())
}

func TestController_SecondSubmitWhileSubmittingIsRejected(t *testing.T) {
	f := newControllerFixture()
	f.repo.createGate = make(chan struct{})
	require.NoError(t, f.controller.SetCategoryName("Cocktails"))

	done := make(chan error, 1)
	go func() {
		_, err := f.controller.SubmitCategory(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool {
		return f.controller.CategoryForm().State == FormSubmitting && f.repo.count("CreateCategory(Cocktails)") == 1
	}, time.Second, time.Millisecond)

	_, err := f.controller.SubmitCategory(context.Background())
	assert.ErrorIs(t, err, ErrFormBusy)
	assert.ErrorIs(t, f.controller.SetCategoryName("Other"), ErrFormBusy)

	close(f.repo.createGate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.repo.count("CreateCategory(Cocktails)"))
}

func TestController_RemoveCategoryDeclined(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"})
	ctx := context.Background()
	require.NoError(t, f.categories.Refresh(ctx))
	before := f.repo.Calls()

	removed, err := f.controller.RemoveCategory(ctx, 1)

	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, f.prompts, 1)
	assert.Equal(t, before, f.repo.Calls())
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Juices"}}, f.categories.Categories())
	assert.Empty(t, f.publisher.routingKeys())
}

func TestController_RemoveProductDeclined(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"})
	ctx := context.Background()
	require.NoError(t, f.categories.Refresh(ctx))

	removed, err := f.controller.RemoveProduct(ctx, 10)

	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, f.repo.count("DeleteProduct(10)"))
}

func TestController_RemoveConfirmed(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"}, domain.Category{ID: 2, Name: "Shisha"})
	f.answer = true
	ctx := context.Background()
	require.NoError(t, f.categories.Refresh(ctx))

	removed, err := f.controller.RemoveProduct(ctx, 10)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.controller.RemoveCategory(ctx, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, []string{
		"ListCategories", "ListProducts(1)",
		"DeleteProduct(10)", "ListProducts(1)",
		"DeleteCategory(1)", "ListCategories", "ListProducts(2)",
	}, f.repo.Calls())
	assert.Equal(t, []string{"product.deleted.v1", "category.deleted.v1"}, f.publisher.routingKeys())
}

func TestController_ConfirmerErrorAborts(t *testing.T) {
	f := newControllerFixture(domain.Category{ID: 1, Name: "Juices"})
	f.controller.confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("stdin closed")
	})

	removed, err := f.controller.RemoveCategory(context.Background(), 1)

	require.Error(t, err)
	assert.False(t, removed)
	assert.Empty(t, f.repo.Calls())
}

func TestController_SaveSettingsPublishes(t *testing.T) {
	f := newControllerFixture()

	saved, err := f.controller.SaveSettings(context.Background(), SettingsForm{SiteName: "Les Zest"})
	require.NoError(t, err)

	assert.Equal(t, "Les Zest", saved.SiteName)
	assert.Equal(t, "Les Zest", f.settings.Settings().SiteName)
	assert.Equal(t, []string{"settings.saved.v1"}, f.publisher.routingKeys())
}

func TestController_NilPublisher(t *testing.T) {
	f := newControllerFixture()
	f.controller.eventPublisher = nil

	require.NoError(t, f.controller.SetCategoryName("Cocktails"))
	_, err := f.controller.SubmitCategory(context.Background())

	assert.NoError(t, err)
}
