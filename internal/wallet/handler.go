package wallet

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

// GetBalance godoc
// @Summary      Current wallet balance
// @Tags         balance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Balance
// @Failure      401  {object}  api.ErrorResponse
// @Router       /balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	b, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, b)
}

// Deposit godoc
// @Summary      Start a wallet deposit
// @Description  Creates a pending processor charge and returns a client-confirmable handle.
// @Tags         balance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      DepositRequest  true  "Deposit amount in cents (minimum 500)"
// @Success      200      {object}  DepositResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /balance/deposit [post]
func (h *Handler) Deposit(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.CreateDeposit(c.Request.Context(), userID, req.AmountCents)
	if err != nil {
		if errors.Is(err, ErrDepositTooSmall) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Minimum deposit is 500 cents"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create deposit"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DepositSuccess godoc
// @Summary      Confirm a wallet deposit
// @Description  Credits the wallet and cashback once the processor charge succeeded. Idempotent per payment intent.
// @Tags         balance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      DepositSuccessRequest  true  "Processor payment intent id"
// @Success      200      {object}  Balance
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /balance/deposit-success [post]
func (h *Handler) DepositSuccess(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req DepositSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	b, err := h.service.ConfirmDeposit(c.Request.Context(), userID, req.PaymentIntentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrIntentNotSettled):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Payment has not succeeded yet"})
		case errors.Is(err, ErrIntentNotDeposit):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Payment is not a wallet deposit"})
		case errors.Is(err, ErrIntentWrongOwner):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Payment belongs to another user"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to confirm deposit"})
		}
		return
	}

	c.JSON(http.StatusOK, b)
}

// ListTransactions godoc
// @Summary      Wallet ledger entries
// @Tags         balance
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {array}   Transaction
// @Failure      401     {object}  api.ErrorResponse
// @Router       /balance/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.service.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}
