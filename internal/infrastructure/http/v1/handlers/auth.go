package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain/auth"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires public and protected auth endpoints.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)

	protected.GET("/me", h.Me)
	protected.POST("/change-password", h.ChangePassword)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, user.ID)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, resp)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.OK(c, user)
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password changed")
}

func (h *AuthHandler) currentUser(c *gin.Context) (*auth.User, bool) {
	userID, err := id.Parse(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return nil, false
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return user, true
}
