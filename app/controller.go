package app

import (
	"context"
	"fmt"
	"menuo/domain"
	"menuo/pkg/events"
	"time"

	"go.uber.org/zap"
)

// Confirmer asks the operator to approve a destructive action. It blocks
// until an answer is given.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// CategoryForm is the admin's category editor. A zero ID creates.
type CategoryForm struct {
	ID   int64
	Name string
}

// Controller runs the admin mutations: it owns the edit forms, gates
// deletes behind the Confirmer and announces every write on the event bus.
type Controller struct {
	categories     *CategoryStore
	products       *ProductStore
	settings       *SettingsStore
	confirmer      Confirmer
	eventPublisher events.Publisher
	service        string

	categoryForm formMachine[CategoryForm]
	productForm  formMachine[ProductForm]
}

type ControllerConfig struct {
	Categories *CategoryStore
	Products   *ProductStore
	Settings   *SettingsStore
	Confirmer  Confirmer
	// EventPublisher may be nil, in which case nothing is published.
	EventPublisher events.Publisher
	Service        string
}

func NewController(cfg ControllerConfig) *Controller {
	return &Controller{
		categories:     cfg.Categories,
		products:       cfg.Products,
		settings:       cfg.Settings,
		confirmer:      cfg.Confirmer,
		eventPublisher: cfg.EventPublisher,
		service:        cfg.Service,
	}
}

func (c *Controller) CategoryForm() Form[CategoryForm] {
	return c.categoryForm.snapshot()
}

func (c *Controller) ProductForm() Form[ProductForm] {
	return c.productForm.snapshot()
}

// EditCategory opens the category form pre-filled with category.
func (c *Controller) EditCategory(category domain.Category) error {
	return c.categoryForm.edit(CategoryForm{ID: category.ID, Name: category.Name})
}

func (c *Controller) SetCategoryName(name string) error {
	return c.categoryForm.update(func(f *CategoryForm) { f.Name = name })
}

func (c *Controller) ResetCategoryForm() error {
	return c.categoryForm.reset()
}

// SubmitCategory creates or renames the category held by the form. The
// form is cleared once the write went through, even if the follow-up
// refresh failed.
func (c *Controller) SubmitCategory(ctx context.Context) (domain.Category, error) {
	form, err := c.categoryForm.begin()
	if err != nil {
		return domain.Category{}, err
	}

	var category domain.Category
	if form.ID != 0 {
		category, err = c.categories.Update(ctx, form.ID, form.Name)
	} else {
		category, err = c.categories.Create(ctx, form.Name)
	}

	if !written(err) {
		c.categoryForm.finish(err)
		return domain.Category{}, err
	}
	c.categoryForm.finish(nil)

	name := events.CategoryCreatedEvent
	if form.ID != 0 {
		name = events.CategoryUpdatedEvent
	}
	c.publishEvent(ctx, name, events.CategoryPayload{
		ID:        category.ID,
		Name:      category.Name,
		UpdatedAt: time.Now().UTC(),
	})

	return category, err
}

// EditProduct opens the product form pre-filled with product.
func (c *Controller) EditProduct(product domain.Product) error {
	return c.productForm.edit(ProductFormFrom(product))
}

func (c *Controller) SetProductForm(form ProductForm) error {
	return c.productForm.update(func(f *ProductForm) { *f = form })
}

func (c *Controller) ResetProductForm() error {
	return c.productForm.reset()
}

// SubmitProduct saves the product form into the displayed category.
func (c *Controller) SubmitProduct(ctx context.Context) (domain.Product, error) {
	form, err := c.productForm.begin()
	if err != nil {
		return domain.Product{}, err
	}

	product, err := c.products.Submit(ctx, form)
	if !written(err) {
		c.productForm.finish(err)
		return domain.Product{}, err
	}
	c.productForm.finish(nil)

	name := events.ProductCreatedEvent
	if form.ID != 0 {
		name = events.ProductUpdatedEvent
	}
	c.publishEvent(ctx, name, events.ProductPayload{
		ID:         product.ID,
		CategoryID: product.CategoryID,
		Name:       product.Name,
		Price:      product.Price,
		Image:      product.Image,
		UpdatedAt:  time.Now().UTC(),
	})

	return product, err
}

// RemoveCategory deletes a category once the operator confirms. It reports
// false with no error when the operator declines.
func (c *Controller) RemoveCategory(ctx context.Context, id int64) (bool, error) {
	ok, err := c.confirm(ctx, fmt.Sprintf("Delete category %d and all of its products?", id))
	if err != nil || !ok {
		return false, err
	}

	err = c.categories.Remove(ctx, id)
	if !written(err) {
		return false, err
	}

	c.publishEvent(ctx, events.CategoryDeletedEvent, events.CategoryDeletedPayload{
		ID:        id,
		DeletedAt: time.Now().UTC(),
	})
	return true, err
}

func (c *Controller) RemoveProduct(ctx context.Context, id int64) (bool, error) {
	ok, err := c.confirm(ctx, fmt.Sprintf("Delete product %d?", id))
	if err != nil || !ok {
		return false, err
	}

	categoryID, _ := c.products.CategoryID()
	err = c.products.Remove(ctx, id)
	if !written(err) {
		return false, err
	}

	c.publishEvent(ctx, events.ProductDeletedEvent, events.ProductDeletedPayload{
		ID:         id,
		CategoryID: categoryID,
		DeletedAt:  time.Now().UTC(),
	})
	return true, err
}

func (c *Controller) SaveSettings(ctx context.Context, form SettingsForm) (domain.Settings, error) {
	saved, err := c.settings.Save(ctx, form)
	if err != nil {
		return domain.Settings{}, err
	}

	c.publishEvent(ctx, events.SettingsSavedEvent, events.SettingsSavedPayload{
		ID:       saved.ID,
		SiteName: saved.SiteName,
		SavedAt:  time.Now().UTC(),
	})
	return saved, nil
}

func (c *Controller) confirm(ctx context.Context, prompt string) (bool, error) {
	if c.confirmer == nil {
		return false, fmt.Errorf("no confirmer configured")
	}

	ok, err := c.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		zap.L().Info("Deletion declined", zap.String("prompt", prompt))
	}
	return ok, nil
}

func (c *Controller) publishEvent(ctx context.Context, name string, payload any) {
	if c.eventPublisher == nil {
		return
	}

	if err := events.PublishMenuEvent(ctx, c.eventPublisher, c.service, name, payload); err != nil {
		zap.L().Error("Failed to publish menu event",
			zap.String("event", name),
			zap.Error(err),
		)
	}
}
