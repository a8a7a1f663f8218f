package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mytheresa/go-warehouse/models"
)

// OKResponse writes data as JSON with the given status code.
func OKResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes {"error": message} with the given status code.
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	OKResponse(w, status, map[string]string{"error": message})
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PathID parses the {id} path value.
func PathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Money renders an amount in cents as currency units.
func Money(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// Cents converts currency units to cents, rounding half away from zero.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// WriteError maps err to a response. Not-found errors carry notFound as the
// message, validation errors their own text, and anything else is logged
// and hidden behind a generic message.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error, notFound string) {
	status := StatusFor(err)
	switch status {
	case http.StatusNotFound:
		ErrorResponse(w, status, notFound)
	case http.StatusBadRequest:
		ErrorResponse(w, status, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		ErrorResponse(w, status, "Internal server error")
	}
}
