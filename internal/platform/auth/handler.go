package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc AuthService }

// RegisterRoutes mounts login publicly and account management behind adminGuard.
func RegisterRoutes(r gin.IRoutes, svc AuthService, adminGuard ...gin.HandlerFunc) {
	h := &AuthHandler{svc: svc}
	r.POST("/login", h.Login)
	r.POST("/accounts", append(adminGuard, h.Register)...)
	r.DELETE("/accounts/:id", append(adminGuard, h.DeleteAccount)...)
	r.PATCH("/accounts/:id", append(adminGuard, h.ChangeID)...)
}

func errorJSON(code, msg string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": msg}}
}

type LoginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login godoc
// @Summary  Librarian login
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body LoginRequest true "credentials"
// @Success  200 {object} LoginResponse
// @Failure  401 {object} map[string]any
// @Router   /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_ARGUMENT", "invalid request"))
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrDisabled) {
			c.JSON(http.StatusUnauthorized, errorJSON("UNAUTHENTICATED", "invalid id or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorJSON("INTERNAL", "login failed"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, Message: "Login successful"})
}

type RegisterRequest struct {
	ID       string  `json:"id" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     *string `json:"role,omitempty"` // 未指定なら librarian
}

// Register godoc
// @Summary  Create a librarian account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body RegisterRequest true "account"
// @Success  201 {object} map[string]any
// @Failure  400 {object} map[string]any
// @Failure  409 {object} map[string]any
// @Router   /accounts [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_ARGUMENT", "invalid request"))
		return
	}

	role := RoleLibrarian
	if req.Role != nil && *req.Role != "" {
		role = *req.Role
	}

	if err := h.svc.Register(c.Request.Context(), req.ID, req.Password, role); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			c.JSON(http.StatusConflict, errorJSON("CONFLICT", "id already exists"))
		case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidID):
			c.JSON(http.StatusBadRequest, errorJSON("INVALID_ARGUMENT", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, errorJSON("INTERNAL", "register failed"))
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

// DeleteAccount godoc
// @Summary  Delete a librarian account
// @Tags     auth
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "account id"
// @Success  200 {object} map[string]any
// @Failure  404 {object} map[string]any
// @Router   /accounts/{id} [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, errorJSON("NOT_FOUND", "account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorJSON("INTERNAL", "delete failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type ChangeIDRequest struct {
	NewID string `json:"new_id" binding:"required"`
}

// ChangeID godoc
// @Summary  Rename a librarian account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string          true "account id"
// @Param    body body ChangeIDRequest true "new id"
// @Success  200 {object} map[string]any
// @Failure  404 {object} map[string]any
// @Failure  409 {object} map[string]any
// @Router   /accounts/{id} [patch]
func (h *AuthHandler) ChangeID(c *gin.Context) {
	var req ChangeIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_ARGUMENT", "invalid request"))
		return
	}

	if err := h.svc.ChangeID(c.Request.Context(), c.Param("id"), req.NewID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, errorJSON("NOT_FOUND", "account not found"))
		case errors.Is(err, ErrAlreadyExists):
			c.JSON(http.StatusConflict, errorJSON("CONFLICT", "new id already exists"))
		case errors.Is(err, ErrInvalidID):
			c.JSON(http.StatusBadRequest, errorJSON("INVALID_ARGUMENT", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, errorJSON("INTERNAL", "change id failed"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "id changed"})
}
