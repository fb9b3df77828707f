package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"menuo/app"
	"menuo/domain"
	"strconv"
)

var _ app.Repository = (*Repository)(nil)

// Repository maps the typed store port onto the generic Client calls.
type Repository struct {
	client *Client
}

func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

type categoryBody struct {
	Name string `json:"name"`
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := make([]domain.Category, 0)
	if err := r.client.List(ctx, Categories, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	var c domain.Category
	err := r.client.Create(ctx, Categories, JSONBody{Value: categoryBody{Name: name}}, &c)
	return c, err
}

func (r *Repository) UpdateCategory(ctx context.Context, id int64, name string) (domain.Category, error) {
	var c domain.Category
	err := r.client.Update(ctx, Categories, id, JSONBody{Value: categoryBody{Name: name}}, &c)
	return c, err
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.client.Remove(ctx, Categories, id)
}

func (r *Repository) ListProducts(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	if err := r.client.ListScoped(ctx, categoryID, Products, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) CreateProduct(ctx context.Context, req *app.SubmitProductRequest) (domain.Product, error) {
	var p domain.Product
	err := r.client.Create(ctx, Products, productForm(req), &p)
	return p, err
}

func (r *Repository) UpdateProduct(ctx context.Context, id int64, req *app.SubmitProductRequest) (domain.Product, error) {
	var p domain.Product
	err := r.client.Update(ctx, Products, id, productForm(req), &p)
	return p, err
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	return r.client.Remove(ctx, Products, id)
}

func (r *Repository) ListSettings(ctx context.Context) ([]domain.Settings, error) {
	rows := make([]domain.Settings, 0)
	if err := r.client.List(ctx, Settings, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) SaveSettings(ctx context.Context, req *app.SaveSettingsRequest) (domain.Settings, error) {
	form, err := settingsForm(req)
	if err != nil {
		return domain.Settings{}, err
	}

	var s domain.Settings
	err = r.client.Create(ctx, Settings, form, &s)
	return s, err
}

func productForm(req *app.SubmitProductRequest) Multipart {
	form := Multipart{
		Fields: []Field{
			{Name: "name", Value: req.Name},
			{Name: "price", Value: req.Price.String()},
			{Name: "description", Value: req.Description},
			{Name: "category_id", Value: strconv.FormatInt(req.CategoryID, 10)},
		},
	}
	if !req.Image.Empty() {
		form.File = &File{FieldName: "image", FileName: req.Image.FileName, Content: req.Image.Content}
	}
	return form
}

func settingsForm(req *app.SaveSettingsRequest) (Multipart, error) {
	links := req.SocialLinks
	if links == nil {
		links = domain.SocialLinks{}
	}
	encoded, err := json.Marshal(links)
	if err != nil {
		return Multipart{}, fmt.Errorf("encode social_links: %w", err)
	}

	form := Multipart{
		Fields: []Field{
			{Name: "site_name", Value: req.SiteName},
			{Name: "primary_color", Value: req.PrimaryColor},
			{Name: "accent_color", Value: req.AccentColor},
			{Name: "social_links", Value: string(encoded)},
		},
	}
	if !req.Logo.Empty() {
		form.File = &File{FieldName: "logo", FileName: req.Logo.FileName, Content: req.Logo.Content}
	}
	return form, nil
}
