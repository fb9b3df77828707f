package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	CategoryID   int64           `json:"category_id"`
	IsNew        bool            `json:"isNew,omitempty"`
	IsBestSeller bool            `json:"isBestSeller,omitempty"`
}
