package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/tcg-chat/internal/chat"
	"github.com/suPer8Hu/tcg-chat/internal/common"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/middleware"
)

const maxIdempotencyKey = 128

type asyncChatReq struct {
	ConversationID string `json:"conversationId" binding:"omitempty,max=36"`
	Message        string `json:"message" binding:"required,max=2000"`
	UseFileSearch  bool   `json:"useFileSearch"`
}

// SubmitChatAsync handles POST /chat/async. A repeated Idempotency-Key
// returns the original job; it is enqueued again only while still queued.
func (h *Handler) SubmitChatAsync(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req asyncChatReq
	if !bindChatJSON(c, &req) {
		return
	}

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(key) > maxIdempotencyKey {
		common.Fail(c, http.StatusBadRequest, 10003, "idempotency key too long")
		return
	}
	var keyPtr *string
	if key != "" {
		keyPtr = &key
	}

	job, created, err := h.ChatSvc.SubmitAsync(c.Request.Context(), uid, chat.ChatInput{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		UseAgent:       true,
		UseFileSearch:  req.UseFileSearch,
	}, keyPtr)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
			validationFailed(c, "message", messageError(err))
		case errors.Is(err, chat.ErrConversationNotFound):
			common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
		default:
			h.Log.Error().Err(err).Uint64("user_id", uid).Msg("submit async chat failed")
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}

	// a queued job under a known key may have failed to enqueue before
	if created || job.Status == chat.JobQueued {
		if err := h.Jobs.PublishJob(c.Request.Context(), job.ID); err != nil {
			h.Log.Error().Err(err).Uint64("user_id", uid).Str("job_id", job.ID).Msg("publish job failed")
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}

	common.OK(c, gin.H{"job_id": job.ID, "conversationId": job.ConversationID})
}

func (h *Handler) GetChatJob(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	j, err := h.ChatSvc.GetJob(c.Request.Context(), uid, c.Param("job_id"))
	if err != nil {
		if errors.Is(err, chat.ErrJobNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":                j.ID,
			"conversation_id":   j.ConversationID,
			"status":            j.Status,
			"result_message_id": j.ResultMessageID,
			"error":             j.Error,
			"created_at":        j.CreatedAt,
			"updated_at":        j.UpdatedAt,
		},
	})
}
