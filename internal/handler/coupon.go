package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"motorent/internal/domain"
	"motorent/internal/service"
)

// CouponHandler handles admin coupon management.
type CouponHandler struct {
	couponService *service.CouponService
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(couponService *service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// CreateCouponRequest is the HTTP request body for creating a coupon.
type CreateCouponRequest struct {
	Code             string    `json:"code" binding:"required"`
	Type             string    `json:"type" binding:"required,oneof=FLAT PERCENTAGE"`
	DiscountValue    float64   `json:"discount_value" binding:"required,gt=0"`
	MinimumCartValue float64   `json:"minimum_cart_value" binding:"gte=0"`
	StartDate        time.Time `json:"start_date" binding:"required"`
	ExpiryDate       time.Time `json:"expiry_date" binding:"required"`
	IsActive         *bool     `json:"is_active"`
}

// CreateCoupon handles POST /v1/admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	promo, err := h.couponService.CreateCoupon(c.Request.Context(), service.CreateCouponRequest{
		Code:             req.Code,
		Type:             domain.DiscountType(req.Type),
		DiscountValue:    req.DiscountValue,
		MinimumCartValue: req.MinimumCartValue,
		StartDate:        req.StartDate,
		ExpiryDate:       req.ExpiryDate,
		Inactive:         req.IsActive != nil && !*req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toCouponResponse(promo))
}
