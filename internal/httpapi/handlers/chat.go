package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/tcg-chat/internal/chat"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/middleware"
)

type chatReq struct {
	ConversationID string `json:"conversationId" binding:"omitempty,max=36"`
	Message        string `json:"message" binding:"required,max=2000"`
	UseAgent       bool   `json:"useAgent"`
	UseFileSearch  bool   `json:"useFileSearch"`
}

// Chat handles POST /chat. The direct path answers {text, sources}; the agent
// path answers with the stored reply and its conversation id.
func (h *Handler) Chat(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req chatReq
	if !bindChatJSON(c, &req) {
		return
	}

	reply, err := h.ChatSvc.Chat(c.Request.Context(), uid, chat.ChatInput{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		UseAgent:       req.UseAgent,
		UseFileSearch:  req.UseFileSearch,
	})
	if err != nil {
		h.chatError(c, uid, err)
		return
	}

	if reply.Agent != nil {
		c.JSON(http.StatusOK, reply.Agent)
		return
	}
	c.JSON(http.StatusOK, reply.Direct)
}

func (h *Handler) chatError(c *gin.Context, uid uint64, err error) {
	var perr *chat.ProviderError
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		validationFailed(c, "message", messageError(err))
	case errors.Is(err, chat.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.As(err, &perr), errors.Is(err, chat.ErrCorpusNotFound):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get response: " + err.Error()})
	default:
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get response: internal error"})
	}
}

func messageError(err error) string {
	if errors.Is(err, chat.ErrMessageTooLong) {
		return "The message field must not be greater than 2000 characters."
	}
	return "The message field is required."
}

// ListMessages handles GET /chat/messages?conversationId=. It returns the
// newest page oldest-first; beforeId pages back and afterId pages forward.
func (h *Handler) ListMessages(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	convID := c.Query("conversationId")
	if convID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
		return
	}

	page, err := messagePage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgs, err := h.ChatSvc.ListMessages(c.Request.Context(), uid, convID, page)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.Log.Error().Err(err).Uint64("user_id", uid).Str("conversation_id", convID).Msg("list messages failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var nextBefore, nextAfter *uint64
	if len(msgs) > 0 && len(msgs) == page.Limit {
		if page.AfterID > 0 {
			nextAfter = &msgs[len(msgs)-1].ID
		} else {
			nextBefore = &msgs[0].ID
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"conversationId": convID,
		"messages":       msgs,
		"nextBeforeId":   nextBefore,
		"nextAfterId":    nextAfter,
	})
}

func messagePage(c *gin.Context) (chat.MessagePage, error) {
	var page chat.MessagePage
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return page, errors.New("limit must be a positive integer")
		}
		page.Limit = n
	}
	for name, dst := range map[string]*uint64{"afterId": &page.AfterID, "beforeId": &page.BeforeID} {
		if v := c.Query(name); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return page, fmt.Errorf("%s must be a message id", name)
			}
			*dst = id
		}
	}
	if page.AfterID > 0 && page.BeforeID > 0 {
		return page, errors.New("afterId and beforeId are exclusive")
	}
	if page.Limit == 0 || page.Limit > chat.MaxMessagePage {
		page.Limit = chat.DefaultMessagePage
	}
	return page, nil
}

// DeleteConversation handles DELETE /chat/conversations/:id.
func (h *Handler) DeleteConversation(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	id := c.Param("id")
	if err := h.ChatSvc.DeleteConversation(c.Request.Context(), uid, id); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false})
			return
		}
		h.Log.Error().Err(err).Uint64("user_id", uid).Str("conversation_id", id).Msg("delete conversation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
