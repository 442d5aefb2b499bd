package domain

import (
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
)

var (
	// ErrProductNotFound means a product id is absent from the catalog.
	ErrProductNotFound = fmt.Errorf("product not found: %w", apperrors.ErrNotFound)

	// ErrEmptyCart means checkout was attempted with no lines.
	ErrEmptyCart = fmt.Errorf("cart is empty: %w", apperrors.ErrUnprocessable)
)

// ProductNotFound creates a 404 error for the given product id.
func ProductNotFound(id int) *apperrors.AppError {
	return apperrors.New(http.StatusNotFound, "PRODUCT_NOT_FOUND", "product "+strconv.Itoa(id)+" not found", ErrProductNotFound)
}

// EmptyCart creates a 422 error for a checkout on an empty cart.
func EmptyCart() *apperrors.AppError {
	return apperrors.Unprocessable("EMPTY_CART", "cart is empty", ErrEmptyCart)
}
