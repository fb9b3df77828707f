package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MenuDomain   = "menu"
	MenuExchange = "menuo.menu"
)

const (
	CategoryCreatedEvent = "category.created"
	CategoryUpdatedEvent = "category.updated"
	CategoryDeletedEvent = "category.deleted"
	ProductCreatedEvent  = "product.created"
	ProductUpdatedEvent  = "product.updated"
	ProductDeletedEvent  = "product.deleted"
	SettingsSavedEvent   = "settings.saved"
)

const (
	EventVersionV1 = "v1"
)

// Routing keys the public-view worker listens on.
var MenuRoutingKeys = []string{
	"category.*." + EventVersionV1,
	"product.*." + EventVersionV1,
	"settings.*." + EventVersionV1,
}

type CategoryPayload struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CategoryDeletedPayload struct {
	ID        int64     `json:"id"`
	DeletedAt time.Time `json:"deletedAt"`
}

type ProductPayload struct {
	ID         int64           `json:"id"`
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type ProductDeletedPayload struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"categoryId"`
	DeletedAt  time.Time `json:"deletedAt"`
}

type SettingsSavedPayload struct {
	ID       int64     `json:"id"`
	SiteName string    `json:"siteName"`
	SavedAt  time.Time `json:"savedAt"`
}
