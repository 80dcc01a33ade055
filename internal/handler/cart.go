package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"motorent/internal/domain"
	"motorent/internal/middleware"
	"motorent/internal/service"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	cartService   *service.CartService
	couponService *service.CouponService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *service.CartService, couponService *service.CouponService) *CartHandler {
	return &CartHandler{
		cartService:   cartService,
		couponService: couponService,
	}
}

// AddCartItemRequest is the HTTP request body for adding a rental line.
type AddCartItemRequest struct {
	MotorcycleID    string `json:"motorcycle_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,min=1"`
	PickupDate      string `json:"pickup_date" binding:"required,isodate"`
	PickupTime      string `json:"pickup_time" binding:"required,hhmm"`
	DropoffDate     string `json:"dropoff_date" binding:"required,isodate"`
	DropoffTime     string `json:"dropoff_time" binding:"required,hhmm"`
	PickupLocation  string `json:"pickup_location" binding:"required,branch"`
	DropoffLocation string `json:"dropoff_location" binding:"required,branch"`
}

// ApplyCouponRequest is the HTTP request body for applying a coupon.
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// BreakupResponse is the per-unit price breakup of a cart line.
type BreakupResponse struct {
	WeekdayCount        int     `json:"weekday_count"`
	WeekdayRate         float64 `json:"weekday_rate"`
	WeekendCount        int     `json:"weekend_count"`
	WeekendRate         float64 `json:"weekend_rate"`
	ExtraHours          float64 `json:"extra_hours"`
	ExtraHoursCharge    float64 `json:"extra_hours_charge"`
	ExtraHoursAsFullDay bool    `json:"extra_hours_charged_as_full_day"`
}

// CartItemResponse is a priced cart line.
type CartItemResponse struct {
	ID                   string           `json:"id"`
	MotorcycleID         string           `json:"motorcycle_id"`
	Make                 string           `json:"make,omitempty"`
	Model                string           `json:"model,omitempty"`
	Quantity             int              `json:"quantity"`
	PickupAt             string           `json:"pickup_at"`
	DropoffAt            string           `json:"dropoff_at"`
	PickupLocation       string           `json:"pickup_location"`
	DropoffLocation      string           `json:"dropoff_location"`
	Duration             string           `json:"duration"`
	TotalHours           float64          `json:"total_hours"`
	RentAmount           float64          `json:"rent_amount"`
	DiscountedRentAmount float64          `json:"discounted_rent_amount"`
	TaxPercentage        float64          `json:"tax_percentage"`
	TotalTax             float64          `json:"total_tax"`
	SecurityDeposit      float64          `json:"security_deposit"`
	Breakup              *BreakupResponse `json:"breakup,omitempty"`
}

// CouponResponse is a coupon attached to a cart or created by an admin.
type CouponResponse struct {
	ID               string  `json:"id"`
	Code             string  `json:"code"`
	Type             string  `json:"type"`
	DiscountValue    float64 `json:"discount_value"`
	MinimumCartValue float64 `json:"minimum_cart_value"`
	StartDate        string  `json:"start_date,omitempty"`
	ExpiryDate       string  `json:"expiry_date,omitempty"`
	IsActive         bool    `json:"is_active"`
}

// CartTotalsResponse are the read-time cart totals.
type CartTotalsResponse struct {
	RentTotal            float64 `json:"rent_total"`
	DiscountTotal        float64 `json:"discount_total"`
	TotalTax             float64 `json:"total_tax"`
	SecurityDepositTotal float64 `json:"security_deposit_total"`
	DiscountedRentTotal  float64 `json:"discounted_rent_total"`
	DiscountedTotal      float64 `json:"discounted_total"`
	CartTotal            float64 `json:"cart_total"`
}

// CartResponse is the HTTP response for cart operations.
type CartResponse struct {
	CustomerID string             `json:"customer_id"`
	Items      []CartItemResponse `json:"items"`
	Coupon     *CouponResponse    `json:"coupon"`
	Totals     CartTotalsResponse `json:"totals"`
}

// GetCart handles GET /v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	view, err := h.cartService.GetCart(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCartResponse(view))
}

// AddItem handles POST /v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	view, err := h.cartService.AddItem(c.Request.Context(), service.AddItemRequest{
		CustomerID:      principal.ID,
		MotorcycleID:    req.MotorcycleID,
		Quantity:        req.Quantity,
		PickupDate:      req.PickupDate,
		PickupTime:      req.PickupTime,
		DropoffDate:     req.DropoffDate,
		DropoffTime:     req.DropoffTime,
		PickupLocation:  domain.Branch(req.PickupLocation),
		DropoffLocation: domain.Branch(req.DropoffLocation),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toCartResponse(view))
}

// RemoveItem handles DELETE /v1/cart/items/:itemId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	view, err := h.cartService.RemoveItem(c.Request.Context(), principal.ID, c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCartResponse(view))
}

// ApplyCoupon handles POST /v1/cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	view, err := h.couponService.ApplyCoupon(c.Request.Context(), principal.ID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCartResponse(view))
}

// RemoveCoupon handles DELETE /v1/cart/coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	view, err := h.couponService.RemoveCoupon(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCartResponse(view))
}

func toCartResponse(view *service.CartView) CartResponse {
	resp := CartResponse{
		CustomerID: view.CustomerID,
		Items:      make([]CartItemResponse, 0, len(view.Lines)),
		Totals: CartTotalsResponse{
			RentTotal:            round2(view.Totals.RentTotal),
			DiscountTotal:        round2(view.Totals.DiscountTotal),
			TotalTax:             round2(view.Totals.TotalTax),
			SecurityDepositTotal: round2(view.Totals.SecurityDepositTotal),
			DiscountedRentTotal:  round2(view.Totals.DiscountedRentTotal),
			DiscountedTotal:      round2(view.Totals.DiscountedTotal),
			CartTotal:            round2(view.Totals.CartTotal),
		},
	}

	for _, line := range view.Lines {
		item := toCartItemResponse(line.CartItem)
		if line.Motorcycle != nil {
			item.Make = line.Motorcycle.Make
			item.Model = line.Motorcycle.Model
			item.Breakup = &BreakupResponse{
				WeekdayCount:        line.Breakup.WeekdayCount,
				WeekdayRate:         line.Breakup.WeekdayRate,
				WeekendCount:        line.Breakup.WeekendCount,
				WeekendRate:         line.Breakup.WeekendRate,
				ExtraHours:          line.Breakup.ExtraHours,
				ExtraHoursCharge:    round2(line.Breakup.ExtraHoursCharge),
				ExtraHoursAsFullDay: line.Breakup.ExtraHoursAsFullDay,
			}
		}
		resp.Items = append(resp.Items, item)
	}

	if view.Coupon != nil {
		coupon := toCouponResponse(view.Coupon)
		resp.Coupon = &coupon
	}

	return resp
}

func toCartItemResponse(item domain.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:                   item.ID,
		MotorcycleID:         item.MotorcycleID,
		Quantity:             item.Quantity,
		PickupAt:             item.PickupAt.Format(time.RFC3339),
		DropoffAt:            item.DropoffAt.Format(time.RFC3339),
		PickupLocation:       string(item.PickupLocation),
		DropoffLocation:      string(item.DropoffLocation),
		Duration:             item.Duration,
		TotalHours:           item.TotalHours,
		RentAmount:           round2(item.RentAmount),
		DiscountedRentAmount: round2(item.DiscountedRentAmount),
		TaxPercentage:        item.TaxPercentage,
		TotalTax:             round2(item.TotalTax),
		SecurityDeposit:      item.SecurityDeposit,
	}
}

func toCouponResponse(p *domain.PromoCode) CouponResponse {
	return CouponResponse{
		ID:               p.ID,
		Code:             p.Code,
		Type:             string(p.Type),
		DiscountValue:    p.DiscountValue,
		MinimumCartValue: p.MinimumCartValue,
		StartDate:        formatTime(p.StartDate),
		ExpiryDate:       formatTime(p.ExpiryDate),
		IsActive:         p.IsActive,
	}
}
