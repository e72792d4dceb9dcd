package handler

import (
	"net/http"
	"time"

	"sulabh/backend/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route of the API. allowedOrigins feeds the CORS policy.
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ws/complaints/:id", h.ServeWebSocket)

	api := r.Group("/api")
	api.GET("/track/:id", h.TrackComplaint)

	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/callback", h.AuthCallback)
	auth.GET("/me", h.RequireAuth(), h.Me)

	complaints := api.Group("/complaints", h.RequireAuth())
	complaints.POST("", h.SubmitComplaint)
	complaints.GET("/mine", h.MyComplaints)
	complaints.GET("/:id", h.GetComplaint)
	complaints.POST("/:id/feedback", h.SubmitFeedback)
	complaints.PATCH("/:id", h.RequireRole(models.RoleAuthority), h.PatchComplaint)
	complaints.POST("/:id/updates", h.RequireRole(models.RoleAuthority), h.AddUpdate)

	authority := api.Group("/authority", h.RequireAuth(), h.RequireRole(models.RoleAuthority))
	authority.GET("/complaints", h.AuthorityComplaints)

	admin := api.Group("/admin", h.RequireAuth(), h.RequireRole(models.RoleAdmin))
	admin.GET("/complaints", h.AdminComplaints)
	admin.GET("/statistics", h.Statistics)

	return r
}
