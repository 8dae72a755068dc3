package api

import (
	"net/http"
	"time"

	"github.com/dobroplatform/dobro-max-bot/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues operator tokens. There is a single operator account
// whose bcrypt hash comes from the environment; the bot's end users never
// authenticate.
type AuthHandler struct {
	passwordHash string
	jwtSecret    string
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(passwordHash, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
	}
}

// LoginRequest is the operator login body
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login verifies the operator password and returns a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.passwordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Operator login is not configured"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	claims := middleware.JWTClaims{
		Subject: "operator",
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": signed})
}
