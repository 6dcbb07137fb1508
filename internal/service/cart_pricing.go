package service

import (
	"github.com/shopspring/decimal"

	"github.com/Tijndh/Mallow/internal/domain"
)

// ProductCatalog is the read side of the catalog the cart prices against.
type ProductCatalog interface {
	ListProducts() []domain.Product
	GetProduct(id string) (domain.Product, error)
}

// priceCart joins cart items with live catalog prices. Items whose product
// has left the catalog are dropped from lines, total and count.
func priceCart(catalog ProductCatalog, cart *domain.Cart) *domain.CartView {
	view := &domain.CartView{
		ID:        cart.ID,
		Items:     make([]domain.CartLine, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		product, err := catalog.GetProduct(item.ProductID)
		if err != nil {
			continue
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		view.Items = append(view.Items, domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   product,
			ItemTotal: subtotal,
		})
		view.ItemCount += item.Quantity
		total = total.Add(subtotal)
	}

	view.Total = total.Round(2)
	return view
}
