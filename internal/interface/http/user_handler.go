package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/internal/application"
	"github.com/oksasatya/circle-up/internal/interface/middleware"
	"github.com/oksasatya/circle-up/pkg/helpers"
	"github.com/oksasatya/circle-up/pkg/response"
)

type UserHandler struct {
	Svc     *application.UserService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type signupRequest struct {
	Name          string `json:"name" binding:"required,displayname"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,pwd"`
	AnonymousName string `json:"anonymousName" binding:"required,displayname"`
	Picture       string `json:"picture"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type singleUserRequest struct {
	ID string `json:"id" binding:"required"`
}

type goalRequest struct {
	UserID string `json:"userId"`
	Goal   string `json:"goal" binding:"required,goal"`
}

type updateGoalRequest struct {
	UserID  string `json:"userId"`
	OldGoal string `json:"oldGoal" binding:"required,goal"`
	NewGoal string `json:"newGoal" binding:"required,goal"`
}

type authPayload struct {
	User  application.UserView `json:"user"`
	Token string               `json:"token"`
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		AnonymousName: req.AnonymousName,
		Picture:       req.Picture,
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.Cookies.SetAccess(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusCreated, authPayload{User: application.SelfView(res.User), Token: res.Token}, "User created", map[string]any{"expires_at": res.ExpiresAt})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.Cookies.SetAccess(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, authPayload{User: application.SelfView(res.User), Token: res.Token}, "login successful", map[string]any{"expires_at": res.ExpiresAt})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.Logger.WithError(err).Warn("logout: session delete failed")
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// List GET /api/users. Display names are resolved for the caller, if any.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "users", nil)
}

// Single POST /api/users/single {id}
func (h *UserHandler) Single(c *gin.Context) {
	var req singleUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	p, err := h.Svc.Get(c.Request.Context(), req.ID, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "user", nil)
}

func (h *UserHandler) AddGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}
	u, err := h.Svc.AddGoal(c.Request.Context(), uid, req.Goal)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, application.SelfView(u), "goal added", nil)
}

func (h *UserHandler) DeleteGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}
	u, err := h.Svc.DeleteGoal(c.Request.Context(), uid, req.Goal)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, application.SelfView(u), "goal deleted", nil)
}

func (h *UserHandler) UpdateGoal(c *gin.Context) {
	var req updateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}
	u, err := h.Svc.UpdateGoal(c.Request.Context(), uid, req.OldGoal, req.NewGoal)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, application.SelfView(u), "goal updated", nil)
}
