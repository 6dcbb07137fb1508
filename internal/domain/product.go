package domain

import "github.com/shopspring/decimal"

// Product is catalog data. Prices are in the shop's single currency.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Subtitle    string          `json:"subtitle"`
	Description string          `json:"description"`
	Ingredients []string        `json:"ingredients"`
	Benefits    []string        `json:"benefits"`
	Usage       string          `json:"usage"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	InStock     bool            `json:"in_stock"`
}
