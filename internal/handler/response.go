package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"motorent/internal/repository"
	"motorent/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Shortfall *float64 `json:"shortfall,omitempty"`
	Fields    []string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	resp := ErrorResponse{Error: err.Error()}

	var minErr *service.CouponMinimumError
	if errors.As(err, &minErr) {
		shortfall := minErr.Shortfall
		resp.Shortfall = &shortfall
	}

	c.JSON(code, resp)
}

// respondBindError reports a malformed or invalid request body.
func respondBindError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: "invalid request body"}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Fields = append(resp.Fields, fe.Field()+": "+fe.Tag())
		}
	}

	c.JSON(http.StatusBadRequest, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrMotorcycleNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidMotorcycleID),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidBranch),
		errors.Is(err, service.ErrInvalidDateTime),
		errors.Is(err, service.ErrBookingTooShort),
		errors.Is(err, service.ErrPickupInPast),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrInvalidCouponCode),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidCouponWindow),
		errors.Is(err, service.ErrCouponMinimumNotMet),
		errors.Is(err, service.ErrInvalidPaymentMode),
		errors.Is(err, service.ErrInvalidPaymentRequest),
		errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest

	// Forbidden
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrMotorcycleNotAtBranch),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrCouponAlreadyExists),
		errors.Is(err, service.ErrBookingAlreadyConfirmed),
		errors.Is(err, service.ErrBookingNotPayable),
		errors.Is(err, service.ErrNoRemainingBalance),
		errors.Is(err, service.ErrPaymentAlreadyProcessed),
		errors.Is(err, service.ErrBookingAlreadyCancelled),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrBookingBusy):
		return http.StatusConflict

	// Upstream payment gateway
	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
