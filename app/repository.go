package app

import (
	"context"
	"menuo/domain"

	"github.com/shopspring/decimal"
)

// Repository is the remote resource store as seen by the stores. Every
// method is a single round trip; implementations must not retry.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, categoryID int64) ([]domain.Product, error)
	CreateProduct(ctx context.Context, req *SubmitProductRequest) (domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *SubmitProductRequest) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListSettings(ctx context.Context) ([]domain.Settings, error)
	SaveSettings(ctx context.Context, req *SaveSettingsRequest) (domain.Settings, error)
}

// AssetArchive keeps a copy of every binary pushed to the API. Discard
// removes a copy whose upload the API rejected.
type AssetArchive interface {
	Archive(ctx context.Context, key string, asset *domain.Upload) error
	Discard(ctx context.Context, key string) error
}

type SubmitProductRequest struct {
	Name        string `validate:"required"`
	Description string
	Price       decimal.Decimal
	CategoryID  int64 `validate:"required"`
	Image       *domain.Upload
}

type SaveSettingsRequest struct {
	SiteName     string
	PrimaryColor string             `validate:"required,hexcolor"`
	AccentColor  string             `validate:"required,hexcolor"`
	SocialLinks  domain.SocialLinks `validate:"dive,keys,oneof=facebook youtube tiktok instagram whatsapp,endkeys,omitempty,url"`
	Logo         *domain.Upload
}
