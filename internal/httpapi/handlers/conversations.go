package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/tcg-chat/internal/chat"
	"github.com/suPer8Hu/tcg-chat/internal/common"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/middleware"
)

type createConversationReq struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *Handler) CreateConversation(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req createConversationReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	conv, err := h.ChatSvc.CreateConversation(c.Request.Context(), uid, req.ID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalidConversationID):
			common.Fail(c, http.StatusBadRequest, 10005, "invalid conversation id")
		case errors.Is(err, chat.ErrConversationExists):
			common.Fail(c, http.StatusConflict, 40901, "conversation already exists")
		default:
			h.Log.Error().Err(err).Uint64("user_id", uid).Msg("create conversation failed")
			common.Fail(c, http.StatusInternalServerError, 50001, "failed to create conversation")
		}
		return
	}

	common.OK(c, gin.H{"conversation": conv})
}

func (h *Handler) ListConversations(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	convs, err := h.ChatSvc.ListConversations(c.Request.Context(), uid, limit)
	if err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("list conversations failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to list conversations")
		return
	}

	common.OK(c, gin.H{"conversations": convs})
}

func unauthorized(c *gin.Context) {
	common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
}
