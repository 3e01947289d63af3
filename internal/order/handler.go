package order

import (
	"errors"
	"net/http"
	"strconv"

	"boostify/internal/api"
	"boostify/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Create a boosting order paid by card
// @Description  Returns a processor client secret for the charge. Use /orders/create-balance to spend the wallet first.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateOrderRequest  true  "Order details"
// @Success      201      {object}  CreateOrderResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /orders [post]
func (h *Handler) Create(c *gin.Context) {
	h.create(c, false)
}

// CreateWithBalance godoc
// @Summary      Create a boosting order spending the wallet first
// @Description  Drains available wallet balance and charges the card only for the remainder.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateOrderRequest  true  "Order details"
// @Success      201      {object}  CreateOrderResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /orders/create-balance [post]
func (h *Handler) CreateWithBalance(c *gin.Context) {
	h.create(c, true)
}

func (h *Handler) create(c *gin.Context, useBalance bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Create(c.Request.Context(), userID, req, useBalance)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Claim godoc
// @Summary      Claim a pending order
// @Description  Assigns the order to the calling booster, opens escrow and a chat. Exactly one booster wins a contested claim.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ClaimRequest  true  "Order id"
// @Success      200      {object}  ClaimResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /orders/claim [post]
func (h *Handler) Claim(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Claim(c.Request.Context(), userID, req.OrderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Complete godoc
// @Summary      Mark an order finished
// @Description  Moves a processing order to awaiting_review. Only the assigned booster may call this.
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Order id"
// @Success      200  {object}  Order
// @Failure      400  {object}  api.ErrorResponse
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /orders/{id}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	o, err := h.service.Complete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// Approve godoc
// @Summary      Approve a finished order
// @Description  Settles the escrow to the booster and marks the order completed.
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Order id"
// @Success      200  {object}  Order
// @Failure      400  {object}  api.ErrorResponse
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /orders/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	o, err := h.service.Approve(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// Reject godoc
// @Summary      Reject a finished order
// @Description  Refunds the customer, card portion through the processor and balance portion back to the wallet.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Order id"
// @Param        request  body      RejectRequest  true  "Rejection reason"
// @Success      200      {object}  Order
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /orders/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	o, err := h.service.Reject(c.Request.Context(), userID, c.Param("id"), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// Get godoc
// @Summary      Fetch a single order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Order id"
// @Success      200  {object}  Order
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /orders/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	o, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// ListMine godoc
// @Summary      List the caller's orders
// @Description  Customers see orders they placed, boosters see orders they claimed.
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Order
// @Failure      401  {object}  api.ErrorResponse
// @Router       /orders [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	role, _ := auth.GetUserRole(c)

	orders, err := h.service.ListMine(c.Request.Context(), userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListAvailable godoc
// @Summary      List unclaimed pending orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Order
// @Failure      401  {object}  api.ErrorResponse
// @Router       /orders/available [get]
func (h *Handler) ListAvailable(c *gin.Context) {
	orders, err := h.service.ListAvailable(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// Earnings godoc
// @Summary      Booster earnings summary
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  EarningsResponse
// @Failure      401  {object}  api.ErrorResponse
// @Router       /orders/earnings [get]
func (h *Handler) Earnings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	resp, err := h.service.Earnings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load earnings"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAll godoc
// @Summary      List every order
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {array}   Order
// @Failure      403     {object}  api.ErrorResponse
// @Router       /admin/orders [get]
func (h *Handler) ListAll(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.service.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var stateErr *StateError
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Order not found"})
	case errors.Is(err, ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrOwnOrder):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotOrderBooster), errors.Is(err, ErrNotOrderCustomer):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: stateErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong"})
	}
}
