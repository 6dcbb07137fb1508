package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem merges quantity into an existing line or appends a new one.
func (c *Cart) AddItem(productID string, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
}

// SetQuantity replaces the quantity of an existing line. A quantity <= 0
// removes the line. It reports whether the cart changed.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if c.Items[i].Quantity == quantity {
				return false
			}
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// RemoveItem drops the line for productID. It reports whether the cart changed.
func (c *Cart) RemoveItem(productID string) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Quantity(productID string) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// CartLine is a cart item joined with its live catalog record.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   Product         `json:"product"`
	ItemTotal decimal.Decimal `json:"item_total"`
}

// CartView is the priced read projection of a Cart.
type CartView struct {
	ID        string          `json:"id"`
	Items     []CartLine      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
