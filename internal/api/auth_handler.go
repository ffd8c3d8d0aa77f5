package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetcare/internal/auth"
)

type LoginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthHandler issues admin access tokens. There is a single admin
// identity, configured through the environment.
type AuthHandler struct {
	adminEmail        string
	adminPasswordHash string
	hasher            auth.PasswordHasher
	jwtManager        *auth.JWTManager
}

func NewAuthHandler(adminEmail, adminPasswordHash string, hasher auth.PasswordHasher, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
		hasher:            hasher,
		jwtManager:        jwtManager,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body LoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if body.Email != h.adminEmail || h.hasher.Compare(h.adminPasswordHash, body.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(body.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{AccessToken: token, TokenType: "Bearer"})
}
