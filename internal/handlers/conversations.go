package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/chats"
	"marketplace-service/internal/models"
	"marketplace-service/internal/observability"
	"marketplace-service/internal/repositories"
	"marketplace-service/internal/ws"
)

const maxMessageLength = 2000

// ConversationHandler manages chat threads and messages.
type ConversationHandler struct {
	convRepo repositories.ConversationRepository
	adRepo   repositories.AdRepository
	userRepo repositories.UserRepository
	hub      *ws.Hub
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(convRepo repositories.ConversationRepository, adRepo repositories.AdRepository, userRepo repositories.UserRepository, hub *ws.Hub) *ConversationHandler {
	return &ConversationHandler{convRepo: convRepo, adRepo: adRepo, userRepo: userRepo, hub: hub}
}

type startConversationRequest struct {
	AdID uuid.UUID `json:"ad_id" binding:"required"`
}

// StartConversation opens (or returns) the thread between the caller and the
// ad's seller.
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	userID, _ := currentUser(c)

	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ad, err := h.adRepo.GetAd(c.Request.Context(), req.AdID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrAdNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "ad not found"})
		return
	}
	if ad.UserID == userID {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot start a conversation about your own ad"})
		return
	}

	conv, err := h.convRepo.CreateOrGetConversation(c.Request.Context(), req.AdID, userID, ad.UserID)
	if err != nil {
		log.WithError(err).Error("failed to start conversation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start conversation"})
		return
	}

	c.JSON(http.StatusOK, conv)
}

// ListConversations returns the caller's inbox: unread threads first, then by
// recency, each with the counterpart's presence attached.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, _ := currentUser(c)

	convs, err := h.convRepo.ListConversations(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("failed to list conversations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	online := make(map[string]bool)
	if ids := chats.CounterpartIDs(convs, userID); len(ids) > 0 {
		users, err := h.userRepo.GetUsers(c.Request.Context(), ids)
		if err != nil {
			log.WithError(err).Warn("failed to load counterpart presence")
		}
		for _, u := range users {
			online[u.ID] = u.Online
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": chats.BuildInbox(convs, userID, online),
		"total_unread":  chats.TotalUnread(convs, userID),
	})
}

// ListMessages returns a thread's messages and clears the caller's unread flag.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	conv, ok := h.loadParticipantConversation(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)

	msgs, err := h.convRepo.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		log.WithError(err).Error("failed to list messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	if err := h.convRepo.MarkRead(c.Request.Context(), conv.ID, userID); err != nil {
		log.WithError(err).Warn("failed to mark conversation read")
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendMessage appends a message to a thread and pushes it to the counterpart's
// inbox connections.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	conv, ok := h.loadParticipantConversation(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is empty"})
		return
	}
	if len(text) > maxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text too long"})
		return
	}

	msg, err := h.convRepo.AppendMessage(c.Request.Context(), conv.ID, userID, text)
	if err != nil {
		log.WithError(err).Error("failed to send message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	observability.IncMessageSent()

	other := chats.Counterpart(conv, userID)
	h.hub.BroadcastChatEvent(other, models.ChatEvent{
		Type:           "message",
		ConversationID: conv.ID,
		Message:        &msg,
	})

	c.JSON(http.StatusCreated, msg)
}

// loadParticipantConversation resolves the :conversation_id param and verifies
// the caller belongs to the thread. It writes the error response itself.
func (h *ConversationHandler) loadParticipantConversation(c *gin.Context) (models.Conversation, bool) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return models.Conversation{}, false
	}

	conv, err := h.convRepo.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return models.Conversation{}, false
	}

	userID, _ := currentUser(c)
	if conv.User1ID != userID && conv.User2ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return models.Conversation{}, false
	}
	return conv, true
}
