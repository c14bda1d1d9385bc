package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/circle-up/internal/application"
	"github.com/oksasatya/circle-up/pkg/response"
)

type CommunityHandler struct {
	Svc *application.CommunityService
}

func NewCommunityHandler(svc *application.CommunityService) *CommunityHandler {
	return &CommunityHandler{Svc: svc}
}

type createCommunityRequest struct {
	Name        string `json:"name" binding:"required,displayname"`
	Description string `json:"description" binding:"max=2000"`
	Admin       string `json:"admin"`
}

type mineRequest struct {
	UserID string `json:"userId"`
}

type addUsersRequest struct {
	UserIDs     []string `json:"userIds" binding:"required,min=1,dive,required"`
	RequesterID string   `json:"id"`
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	admin, ok := actingUser(c, req.Admin)
	if !ok {
		return
	}
	v, err := h.Svc.Create(c.Request.Context(), application.CreateCommunityInput{Name: req.Name, Description: req.Description, AdminID: admin})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, v, "Community created", nil)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	v, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "community", nil)
}

func (h *CommunityHandler) All(c *gin.Context) {
	cs, err := h.Svc.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, cs, "communities", nil)
}

// Mine POST /api/communities/mine {userId}; userId defaults to the caller.
func (h *CommunityHandler) Mine(c *gin.Context) {
	var req mineRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badPayload(c, err)
		return
	}
	uid, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}
	cs, err := h.Svc.Mine(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, cs, "communities", nil)
}

// Search GET /api/communities/search?q=&size=
func (h *CommunityHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

// AddUsers POST /api/communities/:id/add-users {userIds, id}; id is the
// requesting admin and defaults to the caller.
func (h *CommunityHandler) AddUsers(c *gin.Context) {
	var req addUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	requester, ok := actingUser(c, req.RequesterID)
	if !ok {
		return
	}
	v, err := h.Svc.AddUsers(c.Request.Context(), c.Param("id"), requester, req.UserIDs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "Users added", nil)
}
