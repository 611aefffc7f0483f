// Package handlers implements the HTTP endpoints of API v1.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/appctx"
	"stockbooks/internal/core/id"
	"stockbooks/internal/infrastructure/http/v1/dto"
	"stockbooks/pkg/validator"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		appErr := apperror.NewValidation("invalid request body")
		if fields := validator.FieldErrors(err); fields != nil && fields[0].Field != "struct" {
			appErr = appErr.WithDetail("fields", fields)
		} else {
			appErr = appErr.WithDetail("error", err.Error())
		}
		h.Error(c, appErr)
		return false
	}
	return true
}

// Error registers the error on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses the :id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context) (id.ID, bool) {
	parsed, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("id", c.Param("id")))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIntQuery parses an integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseIDQuery parses an optional id query parameter.
func (h *BaseHandler) ParseIDQuery(c *gin.Context, key string) (*id.ID, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := id.Parse(val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail(key, val))
		return nil, false
	}
	return &parsed, true
}

// ParseDateQuery parses an optional RFC3339 or YYYY-MM-DD query parameter.
func (h *BaseHandler) ParseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return &t, true
	}
	h.Error(c, apperror.NewValidation("invalid date format").WithDetail(key, val))
	return nil, false
}

// GetUserID extracts the acting user from the request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, entityID id.ID) {
	c.JSON(http.StatusCreated, dto.NewIDResponse(entityID))
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends a success response without payload.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
