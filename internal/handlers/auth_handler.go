package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"opsdesk/internal/middleware"
	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
)

type AuthHandler struct {
	users repositories.UserRepository
	log   *logrus.Logger
}

func NewAuthHandler(users repositories.UserRepository, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// @Summary      Sign in
// @Description  Authenticates a user and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infof("[auth][login][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)
	h.log.Infof("[auth][login] attempt email=%q", email)

	user, err := h.users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		h.log.Errorf("[auth][login][err] lookup email=%q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
		return
	}
	if user == nil || strings.TrimSpace(user.PasswordHash) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.Active {
		h.log.Infof("[auth][login][deny] inactive account id=%s", user.ID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(user.PasswordHash)),
		[]byte(strings.TrimSpace(req.Password))); err != nil {
		h.log.Infof("[auth][login][deny] bcrypt mismatch id=%s", user.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	claims := middleware.Claims{
		UserID:  user.ID,
		RoleKey: user.RoleKey,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(middleware.JWTKey)
	if err != nil {
		h.log.Errorf("[auth][login][err] sign token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
		return
	}

	h.log.Infof("[auth][login][ok] id=%s", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"user": gin.H{
			"id":        user.ID,
			"full_name": user.FullName,
			"role_key":  user.RoleKey,
		},
	})
}
