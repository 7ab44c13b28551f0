package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Prithwi32/Ecommerce-Backend/internal/cart"
	"github.com/Prithwi32/Ecommerce-Backend/internal/catalog"
	"github.com/Prithwi32/Ecommerce-Backend/internal/order"
	"github.com/Prithwi32/Ecommerce-Backend/internal/payment"
	"github.com/Prithwi32/Ecommerce-Backend/internal/stock"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

// writeServiceError maps domain sentinels onto stable HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, stock.ErrNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, stock.ErrInsufficientStock),
		errors.Is(err, order.ErrValidation),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, payment.ErrVerificationFailed),
		errors.Is(err, payment.ErrAlreadyProcessed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrGateway):
		writeError(w, http.StatusInternalServerError, "error initializing payment")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
