package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/circle-up/internal/application"
	"github.com/oksasatya/circle-up/pkg/response"
)

type MessageHandler struct {
	Direct      *application.MessageService
	Communities *application.CommunityService
}

func NewMessageHandler(direct *application.MessageService, communities *application.CommunityService) *MessageHandler {
	return &MessageHandler{Direct: direct, Communities: communities}
}

type conversationRequest struct {
	UserID string `json:"userId"`
}

// CommunityHistory GET /api/community-messages/:communityId
func (h *MessageHandler) CommunityHistory(c *gin.Context) {
	msgs, err := h.Communities.History(c.Request.Context(), c.Param("communityId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, msgs, "messages", nil)
}

// DirectHistory POST /api/messages/:otherUserId {userId}
func (h *MessageHandler) DirectHistory(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badPayload(c, err)
		return
	}
	uid, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}
	msgs, err := h.Direct.History(c.Request.Context(), uid, c.Param("otherUserId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, msgs, "messages", nil)
}
