package coupon

import (
	"errors"
	"net/http"

	"boostify/internal/api"
	"boostify/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Validate godoc
// @Summary      Validate a coupon code
// @Description  Returns the discount for a code and amount. Validation failure is a normal 200 response with valid=false.
// @Tags         coupons
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ValidateRequest  true  "Code and order amount"
// @Success      200      {object}  ValidateResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /coupons/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Validate(c.Request.Context(), req.Code, req.AmountCents)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to validate coupon"})
		return
	}

	metrics.RecordCouponValidation(resp.Valid)
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Create a coupon
// @Tags         coupons
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateCouponRequest  true  "Coupon definition"
// @Success      201      {object}  Coupon
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/coupons [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create coupon"})
		return
	}

	c.JSON(http.StatusCreated, created)
}
