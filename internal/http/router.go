package api

import (
	"log"
	stdhttp "net/http"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	h "taskhub/internal/http/handlers"
	"taskhub/internal/http/middleware"
	"taskhub/internal/scope"
	"taskhub/internal/service"

	"github.com/gin-gonic/gin"
)

// Deps carries the explicitly constructed collaborators the router wires
// into handlers. Nothing here is global.
type Deps struct {
	Settings config.Settings
	Tokens   auth.TokenManager
	Users    *service.UserService
	Tasks    *service.TaskService
	System   h.SystemHandler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(d.Settings.CORSOrigins),
		middleware.Authenticate(d.Tokens),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	authHandler := h.AuthHandler{Users: d.Users, Tokens: d.Tokens}
	userHandler := h.UserHandler{Users: d.Users}
	taskHandler := h.TaskHandler{Tasks: d.Tasks}

	api := r.Group("/api/v1")
	{
		api.GET("/health", d.System.Health)
		api.GET("/db-check", d.System.DBCheck)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)

		users := api.Group("/users", middleware.RequireAuth())
		users.GET("/me", userHandler.Me)
		users.PUT("/me", userHandler.UpdateMe)
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.GetByID)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
		users.POST("/:id/grant-admin", middleware.RequireRoles(scope.RoleAdmin), userHandler.GrantAdmin)

		tasks := api.Group("/tasks", middleware.RequireAuth())
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.GET("/export/pdf", taskHandler.ExportPDF)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	return r
}
