package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taskrewarder/internal/middleware"
	"taskrewarder/internal/models"
	"taskrewarder/internal/repositories"
	"taskrewarder/internal/services"
)

type AuthHandler struct {
	users        repositories.UserRepository
	authService  services.AuthService
	emailService services.EmailService
	jwtKey       []byte
	tokenTTL     time.Duration
}

func NewAuthHandler(users repositories.UserRepository, authService services.AuthService, emailService services.EmailService, jwtKey []byte, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:        users,
		authService:  authService,
		emailService: emailService,
		jwtKey:       jwtKey,
		tokenTTL:     tokenTTL,
	}
}

func (h *AuthHandler) signToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtKey)
}

// @Summary      Register a new user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string      `json:"email" binding:"required"`
		Password string      `json:"password" binding:"required"`
		Username string      `json:"username" binding:"required"`
		Role     models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][register][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	log.Printf("[auth][register] attempt email=%q role=%q", email, req.Role)

	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be organizer or volunteer"})
		return
	}

	existing, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		log.Printf("[auth][register][err] lookup email=%q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed. Please try again."})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth][register][err] hash: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed. Please try again."})
		return
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Level:        models.LevelBeginner,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		log.Printf("[auth][register][err] create email=%q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed. Please try again."})
		return
	}

	token, err := h.signToken(user)
	if err != nil {
		log.Printf("[auth][register][err] sign token userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	log.Printf("[auth][register][ok] userID=%d role=%q", user.ID, user.Role)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})

	if h.emailService != nil {
		if err := h.emailService.SendWelcomeEmail(user.Email, user.Username); err != nil {
			// warn but do not fail registration
			log.Printf("[auth][register] warning: welcome email to %s failed: %v", user.Email, err)
		}
	}
}

// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	log.Printf("[auth][login] attempt email=%q", email)

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		log.Printf("[auth][login][err] lookup email=%q: %v", email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if user == nil {
		log.Printf("[auth][login] no user for email=%q", email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)); err != nil {
		log.Printf("[auth][login] password mismatch userID=%d", user.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.signToken(user)
	if err != nil {
		log.Printf("[auth][login][err] sign token userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	log.Printf("[auth][login][ok] userID=%d role=%q", user.ID, user.Role)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// @Summary      Current user profile
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[auth][profile][err] userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token - user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout exists for API symmetry; with stateless JWTs the client just drops
// the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
