package chat

import (
	"net/http"
	"strconv"

	"boostify/internal/api"
	"boostify/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// ListChats godoc
// @Summary      List my chats
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Chat
// @Failure      401  {object}  api.ErrorResponse
// @Router       /chats [get]
func (h *Handler) ListChats(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	chats, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load chats"})
		return
	}

	c.JSON(http.StatusOK, chats)
}

// ListMessages godoc
// @Summary      List chat messages
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Param        chatID  path      string  true  "Chat ID"
// @Success      200     {array}   Message
// @Failure      403     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /chats/{chatID}/messages [get]
func (h *Handler) ListMessages(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	ch, err := h.repo.GetByID(c.Request.Context(), c.Param("chatID"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Chat not found"})
		return
	}

	if ch.CustomerID != userID && ch.BoosterID != userID {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Not a participant of this chat"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	msgs, err := h.repo.ListMessages(c.Request.Context(), ch.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, msgs)
}

// SendMessage godoc
// @Summary      Send a chat message
// @Tags         chats
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        chatID   path      string              true  "Chat ID"
// @Param        request  body      SendMessageRequest  true  "Message body"
// @Success      201      {object}  Message
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /chats/{chatID}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ch, err := h.repo.GetByID(c.Request.Context(), c.Param("chatID"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Chat not found"})
		return
	}

	if ch.CustomerID != userID && ch.BoosterID != userID {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Not a participant of this chat"})
		return
	}

	msg, err := h.repo.PostMessage(c.Request.Context(), ch.ID, userID, req.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}
