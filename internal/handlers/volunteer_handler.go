package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskrewarder/internal/repositories"
	"taskrewarder/internal/services"
)

type VolunteerHandler struct {
	rewards services.RewardService
	users   repositories.UserRepository
}

func NewVolunteerHandler(rewards services.RewardService, users repositories.UserRepository) *VolunteerHandler {
	return &VolunteerHandler{rewards: rewards, users: users}
}

// @Summary      Current volunteer profile and stats
// @Tags         Volunteers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /api/volunteers/me [get]
func (h *VolunteerHandler) Me(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[volunteer][me][err] userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load volunteer"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"volunteer": user})
}

// @Summary      Token transaction history, newest first
// @Tags         Volunteers
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "max rows (default 50)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/volunteers/me/transactions [get]
func (h *VolunteerHandler) Transactions(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	limit := 0
	if v, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		} else {
			log.Printf("[volunteer][transactions][warn] bad limit=%q: %v", v, err)
		}
	}

	history, err := h.rewards.History(c.Request.Context(), userID, limit)
	if err != nil {
		log.Printf("[volunteer][transactions][err] userID=%d: %v", userID, err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history, "total": len(history)})
}

// @Summary      Download a PDF reward statement
// @Tags         Volunteers
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200
// @Router       /api/volunteers/me/statement [get]
func (h *VolunteerHandler) Statement(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		log.Printf("[volunteer][statement][err] userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load volunteer"})
		return
	}

	path, err := h.rewards.Statement(c.Request.Context(), user)
	if err != nil {
		log.Printf("[volunteer][statement][err] userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate statement"})
		return
	}
	log.Printf("[volunteer][statement][ok] userID=%d path=%s", userID, path)
	c.FileAttachment(path, "statement.pdf")
}

// @Summary      Link a Telegram chat for notifications
// @Tags         Volunteers
// @Accept       json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /api/volunteers/me/telegram [put]
func (h *VolunteerHandler) UpdateTelegram(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		ChatID int64 `json:"chat_id" binding:"required"`
		Notify bool  `json:"notify"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.UpdateTelegramLink(c.Request.Context(), userID, req.ChatID, req.Notify); err != nil {
		log.Printf("[volunteer][telegram][err] userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update telegram link"})
		return
	}
	log.Printf("[volunteer][telegram][ok] userID=%d chatID=%d notify=%v", userID, req.ChatID, req.Notify)
	c.JSON(http.StatusOK, gin.H{"message": "Telegram link updated"})
}
