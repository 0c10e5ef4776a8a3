package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskrewarder/internal/handlers"
	"taskrewarder/internal/middleware"
	"taskrewarder/internal/models"
)

func SetupRoutes(
	r *gin.Engine,
	jwtKey []byte,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	volunteerHandler *handlers.VolunteerHandler,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- public
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	// ---- protected
	api := r.Group("/api", middleware.AuthMiddleware(jwtKey))

	api.GET("/auth/profile", authHandler.Profile)
	api.POST("/auth/logout", authHandler.Logout)

	tasks := api.Group("/tasks")
	{
		tasks.GET("/", taskHandler.List)
		tasks.GET("/available", taskHandler.Available)
		tasks.GET("/:id", taskHandler.GetByID)

		tasks.POST("/", middleware.RequireRole(models.RoleOrganizer), taskHandler.Create)
		tasks.PUT("/:id/verify", middleware.RequireRole(models.RoleOrganizer), taskHandler.Verify)
		tasks.DELETE("/:id", middleware.RequireRole(models.RoleOrganizer), taskHandler.Delete)

		tasks.PUT("/:id/assign", middleware.RequireRole(models.RoleVolunteer), taskHandler.Assign)
		tasks.PUT("/:id/complete", middleware.RequireRole(models.RoleVolunteer), taskHandler.Complete)
	}

	volunteers := api.Group("/volunteers", middleware.RequireRole(models.RoleVolunteer))
	{
		volunteers.GET("/me", volunteerHandler.Me)
		volunteers.GET("/me/transactions", volunteerHandler.Transactions)
		volunteers.GET("/me/statement", volunteerHandler.Statement)
		volunteers.PUT("/me/telegram", volunteerHandler.UpdateTelegram)
	}

	return r
}
