package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"estatehub/internal/services"
)

type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type setUnreadRequest struct {
	Count *int `json:"count" binding:"required"`
}

type decreaseUnreadRequest struct {
	Amount *int `json:"amount" binding:"required"`
}

type unreadResponse struct {
	Count int `json:"count"`
}

func chatErrorStatus(err error) int {
	if errors.Is(err, services.ErrNotChatMember) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// @Summary      List chats
// @Description  Chats of the caller with per-chat unread counts; also resyncs the unread badge
// @Tags         Chats
// @Produce      json
// @Success      200  {array}   models.Chat
// @Security     BearerAuth
// @Router       /chats [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	chats, err := h.service.ListUserChats(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("[chat][list] failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chats)
}

// @Summary      Mark chat read
// @Tags         Chats
// @Produce      json
// @Param        id   path      int  true  "Chat ID"
// @Success      200  {object}  unreadResponse
// @Failure      403  {object}  errorResponse
// @Security     BearerAuth
// @Router       /chats/{id}/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	chatID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	count, err := h.service.MarkRead(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, unreadResponse{Count: count})
}

// @Summary      List chat messages
// @Tags         Chats
// @Produce      json
// @Param        id      path      int  true   "Chat ID"
// @Param        limit   query     int  false  "Page size (default 50)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   models.ChatMessage
// @Failure      403     {object}  errorResponse
// @Security     BearerAuth
// @Router       /chats/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	chatID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := h.service.GetMessages(c.Request.Context(), chatID, userID, limit, offset)
	if err != nil {
		c.JSON(chatErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// @Summary      Send chat message
// @Tags         Chats
// @Accept       json
// @Produce      json
// @Param        id    path      int                 true  "Chat ID"
// @Param        body  body      sendMessageRequest  true  "Message"
// @Success      201   {object}  models.ChatMessage
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Security     BearerAuth
// @Router       /chats/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	chatID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.service.SendMessage(c.Request.Context(), chatID, userID, req.Text)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotChatMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// @Summary      Unread badge count
// @Tags         Unread
// @Produce      json
// @Success      200  {object}  unreadResponse
// @Security     BearerAuth
// @Router       /unread [get]
func (h *ChatHandler) GetUnread(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	c.JSON(http.StatusOK, unreadResponse{Count: h.service.UnreadCount(userID)})
}

// @Summary      Set unread badge count
// @Tags         Unread
// @Accept       json
// @Produce      json
// @Param        body  body      setUnreadRequest  true  "New total"
// @Success      200   {object}  unreadResponse
// @Failure      400   {object}  errorResponse
// @Security     BearerAuth
// @Router       /unread [put]
func (h *ChatHandler) SetUnread(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req setUnreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must not be negative"})
		return
	}
	c.JSON(http.StatusOK, unreadResponse{Count: h.service.SetUnread(userID, *req.Count)})
}

// @Summary      Decrease unread badge count
// @Tags         Unread
// @Accept       json
// @Produce      json
// @Param        body  body      decreaseUnreadRequest  true  "Amount"
// @Success      200   {object}  unreadResponse
// @Failure      400   {object}  errorResponse
// @Security     BearerAuth
// @Router       /unread/decrease [post]
func (h *ChatHandler) DecreaseUnread(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req decreaseUnreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}
	c.JSON(http.StatusOK, unreadResponse{Count: h.service.DecreaseUnread(userID, *req.Amount)})
}

// @Summary      Reset unread badge count
// @Tags         Unread
// @Produce      json
// @Success      200  {object}  unreadResponse
// @Security     BearerAuth
// @Router       /unread [delete]
func (h *ChatHandler) ResetUnread(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	c.JSON(http.StatusOK, unreadResponse{Count: h.service.ResetUnread(userID)})
}

// StreamUnread pushes the badge count as server-sent events, starting with
// the current value.
//
// @Summary      Stream unread badge count
// @Description  Server-sent events named "unread" carrying {"count": n}, first the current value, then one per change
// @Tags         Unread
// @Produce      text/event-stream
// @Success      200  {object}  unreadResponse
// @Security     BearerAuth
// @Router       /unread/stream [get]
func (h *ChatHandler) StreamUnread(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	updates, cancel := h.service.SubscribeUnread(userID)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("unread", unreadResponse{Count: h.service.UnreadCount(userID)})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("unread", unreadResponse{Count: n})
			return true
		}
	})
}
