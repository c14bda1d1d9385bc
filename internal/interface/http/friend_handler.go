package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/circle-up/internal/application"
	"github.com/oksasatya/circle-up/internal/interface/middleware"
	"github.com/oksasatya/circle-up/pkg/response"
)

type FriendHandler struct {
	Svc *application.FriendService
}

func NewFriendHandler(svc *application.FriendService) *FriendHandler {
	return &FriendHandler{Svc: svc}
}

type addFriendRequest struct {
	UserID   string `json:"userId"`
	FriendID string `json:"id" binding:"required"`
}

// friendId owns the name being revealed or hidden and must be the caller;
// userId is the friend who gets to see it.
type visibilityRequest struct {
	UserID   string `json:"userId" binding:"required"`
	FriendID string `json:"friendId"`
	Value    *bool  `json:"value" binding:"required"`
}

func (h *FriendHandler) Candidates(c *gin.Context) {
	users, err := h.Svc.Candidates(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "candidates", nil)
}

func (h *FriendHandler) Add(c *gin.Context) {
	var req addFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}
	if err := h.Svc.AddFriend(c.Request.Context(), uid, req.FriendID); err != nil {
		fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"userId": uid, "friendId": req.FriendID}, "Friend added successfully", nil)
}

func (h *FriendHandler) Visibility(c *gin.Context) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	owner, ok := actingUser(c, req.FriendID)
	if !ok {
		return
	}
	if err := h.Svc.SetVisibility(c.Request.Context(), owner, req.UserID, *req.Value); err != nil {
		fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"userId": req.UserID, "friendId": owner, "showName": *req.Value}, "Visibility updated", nil)
}
