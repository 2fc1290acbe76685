package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pushp314/shortlink-backend/internal/middleware"
	"github.com/pushp314/shortlink-backend/internal/service"
	"github.com/pushp314/shortlink-backend/pkg/apperrors"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Token handles POST /token. Credentials arrive as form fields.
func (h *AuthHandler) Token(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		c.Error(err)
		return
	}
	if user == nil {
		c.Error(apperrors.Unauthorized("Incorrect username or password"))
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Logout handles POST /logout. The current token's jti is blacklisted until
// it would have expired anyway.
func (h *AuthHandler) Logout(c *gin.Context) {
	if tokenString := c.GetString(middleware.ContextTokenKey); tokenString != "" {
		h.auth.RevokeToken(c.Request.Context(), tokenString)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me handles GET /users/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.Error(apperrors.Unauthorized("Unauthorized access"))
		return
	}
	c.JSON(http.StatusOK, user)
}
