package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/ratelimit"
	"github.com/gin-gonic/gin"
)

// NewRouter wires routes and middleware. authLimiter throttles the
// unauthenticated auth endpoints per client IP and may be nil.
func NewRouter(h *Handler, authLimiter *ratelimit.IPLimiter, logger logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))

	public := r.Group("/", authLimiter.Handler())
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/token/refresh", h.RefreshToken)
		public.POST("/send-reset-password-email", h.SendResetEmail)
		public.POST("/reset-password/:uid/:token", h.ResetPassword)
	}

	private := r.Group("/", h.requireAuth)
	{
		private.GET("/profile", h.Profile)
		private.POST("/change-password", h.ChangePassword)

		users := private.Group("/users")
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)

		clients := private.Group("/clients")
		clients.GET("", h.ListClients)
		clients.POST("", h.CreateClient)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.PATCH("/:id", h.PatchClient)
		clients.DELETE("/:id", h.DeleteClient)

		projects := private.Group("/projects")
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.GET("/my-projects", h.MyProjects)
		projects.GET("/:id", h.GetProject)
		projects.PUT("/:id", h.UpdateProject)
		projects.PATCH("/:id", h.PatchProject)
		projects.DELETE("/:id", h.DeleteProject)
		projects.POST("/:id/attachments", h.UploadAttachment)
		projects.GET("/:id/attachments/:name", h.DownloadAttachment)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, detail(msgNotFound))
	})

	return r
}
