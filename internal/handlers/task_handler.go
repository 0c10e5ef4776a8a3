package handlers

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskrewarder/internal/models"
	"taskrewarder/internal/repositories"
	"taskrewarder/internal/services"
)

type TaskHandler struct {
	service services.TaskService

	// volunteer notifications
	tg     *services.TelegramService
	emails services.EmailService
	users  repositories.UserRepository
}

func NewTaskHandler(service services.TaskService, tg *services.TelegramService, emails services.EmailService, users repositories.UserRepository) *TaskHandler {
	return &TaskHandler{service: service, tg: tg, emails: emails, users: users}
}

func (h *TaskHandler) loadActor(c *gin.Context) (*models.User, bool) {
	userID, _ := getUserAndRole(c)
	actor, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[task][actor][err] userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return nil, false
	}
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	return actor, true
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := h.loadActor(c)
	if !ok {
		return
	}
	log.Printf("[task][create] call by userID=%d role=%q", actor.ID, actor.Role)

	var req struct {
		Title       string            `json:"title" binding:"required"`
		Description string            `json:"description" binding:"required"`
		Difficulty  models.Difficulty `json:"difficulty" binding:"required"`
		Deadline    string            `json:"deadline" binding:"required"` // RFC3339
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		log.Printf("[task][create][err] invalid deadline=%q: %v", req.Deadline, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline (RFC3339)"})
		return
	}

	task, err := h.service.Create(c.Request.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Deadline:    deadline,
	})
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][create][ok] id=%d difficulty=%q reward=%d", task.ID, task.Difficulty, task.TokenReward)
	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully", "task": task})
}

// @Summary      List tasks
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        difficulty  query  string  false  "difficulty filter"
// @Param        status      query  string  false  "status filter"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	actor, ok := h.loadActor(c)
	if !ok {
		return
	}

	var filter models.TaskFilter
	if v, ok := c.GetQuery("difficulty"); ok {
		d := models.Difficulty(v)
		filter.Difficulty = &d
	}
	if v, ok := c.GetQuery("status"); ok {
		st := models.TaskStatus(v)
		filter.Status = &st
	}

	tasks, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][list][ok] userID=%d count=%d", actor.ID, len(tasks))
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

// @Summary      Tasks available to the current volunteer
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /api/tasks/available [get]
func (h *TaskHandler) Available(c *gin.Context) {
	actor, ok := h.loadActor(c)
	if !ok {
		return
	}

	tasks, err := h.service.ListAvailable(c.Request.Context(), actor)
	if err != nil {
		log.Printf("[task][available][err] %v", err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Task
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// @Summary      Take an open task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Task
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/tasks/{id}/assign [put]
func (h *TaskHandler) Assign(c *gin.Context) {
	actor, ok := h.loadActor(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}
	log.Printf("[task][assign] call by userID=%d level=%q id=%d", actor.ID, actor.Level, id)

	task, err := h.service.Assign(c.Request.Context(), actor, id)
	if err != nil {
		log.Printf("[task][assign][deny] userID=%d id=%d: %v", actor.ID, id, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][assign][ok] id=%d volunteer=%d", id, actor.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Task assigned successfully", "task": task})
}

// @Summary      Mark an assigned task complete
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Task
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/tasks/{id}/complete [put]
func (h *TaskHandler) Complete(c *gin.Context) {
	actor, ok := h.loadActor(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.service.Complete(c.Request.Context(), actor, id)
	if err != nil {
		log.Printf("[task][complete][deny] userID=%d id=%d: %v", actor.ID, id, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][complete][ok] id=%d volunteer=%d", id, actor.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Task marked as complete", "task": task})
}

// @Summary      Verify a completed task and award tokens
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Task
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/tasks/{id}/verify [put]
func (h *TaskHandler) Verify(c *gin.Context) {
	actor, ok := h.loadActor(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}
	log.Printf("[task][verify] call by userID=%d id=%d", actor.ID, id)

	task, award, err := h.service.Verify(c.Request.Context(), actor, id)
	if err != nil {
		log.Printf("[task][verify][deny] userID=%d id=%d: %v", actor.ID, id, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][verify][ok] id=%d volunteer=%d tokens=%d level=%q->%q",
		id, award.Volunteer.ID, award.Amount, award.OldLevel, award.NewLevel)
	c.JSON(http.StatusOK, gin.H{"message": "Task verified successfully", "task": task})

	// advisory notifications; failures never undo the award
	h.notifyAward(c, task, award)
}

// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := h.loadActor(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		log.Printf("[task][delete][deny] userID=%d id=%d: %v", actor.ID, id, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][delete][ok] id=%d by=%d", id, actor.ID)
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) notifyAward(c *gin.Context, task *models.Task, award *models.AwardResult) {
	volunteer := award.Volunteer
	if volunteer == nil {
		return
	}

	chatID, allow, err := h.users.GetTelegramSettings(c.Request.Context(), volunteer.ID)
	if err != nil {
		log.Printf("[task][notify] telegram settings volunteer=%d: %v", volunteer.ID, err)
	} else if allow && chatID != 0 {
		msg := "✅ Task verified\n" +
			"• <b>" + html.EscapeString(task.Title) + "</b>\n" +
			"• Tokens: <code>+" + strconv.Itoa(award.Amount) + "</code>\n" +
			"• Balance: <code>" + strconv.Itoa(volunteer.TotalTokens) + "</code>"
		_ = h.tg.SendMessage(chatID, msg)
		if award.LeveledUp() {
			_ = h.tg.SendMessage(chatID, fmt.Sprintf("🎉 Level up! You are now <b>%s</b>.", award.NewLevel))
		}
	}

	if award.LeveledUp() && h.emails != nil {
		if err := h.emails.SendLevelUpEmail(volunteer.Email, volunteer.Username, string(award.NewLevel)); err != nil {
			log.Printf("[task][notify] level-up email volunteer=%d: %v", volunteer.ID, err)
		}
	}
}
