package service

import (
	"fmt"

	"github.com/Tijndh/Mallow/internal/domain"
)

var (
	ErrEmptyCart       = fmt.Errorf("cart is empty, nothing to checkout: %w", domain.ErrInvalidState)
	ErrNonPositiveCart = fmt.Errorf("cart total must be positive: %w", domain.ErrInvalidState)
)
