package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"instafacts-api/config"
	"instafacts-api/controllers"
	"instafacts-api/middleware"
	"instafacts-api/services"
	"instafacts-api/store"
)

func SetupRoutes(r *gin.Engine, st store.Store, cfg *config.Config, log *zap.Logger, emailService *services.EmailService) {
	// Controllers
	authController := controllers.NewAuthController(st, cfg.JWTSecret, emailService)
	postController := controllers.NewPostController(st)
	commentController := controllers.NewCommentController(st)
	userController := controllers.NewUserController(st)
	adminController := controllers.NewAdminController(st)
	realtimeController := controllers.NewRealtimeController(st, log)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Local mode writes media next to its snapshots; serve it from there.
	if local, ok := st.(*store.Local); ok {
		r.Static("/media", local.MediaDir())
	}

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public, rate limited)
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(30, 10))
	{
		auth.POST("/login", authController.Login)
		auth.POST("/register", authController.Register)
		auth.POST("/logout", authController.Logout)
	}

	// Feed and public profiles are readable signed out.
	v1.GET("/posts", postController.GetPosts)
	v1.GET("/profiles/:id", userController.GetUser)
	v1.GET("/realtime", realtimeController.Stream)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		// Post routes
		posts := protected.Group("/posts")
		{
			posts.POST("/", postController.CreatePost)
			posts.PUT("/:id", postController.UpdatePost)
			posts.DELETE("/:id", postController.DeletePost)
			posts.POST("/:id/react", postController.ReactPost)

			posts.POST("/:id/comments", commentController.CreateComment)
			posts.POST("/:id/comments/:cid/replies", commentController.CreateReply)
			posts.PUT("/:id/comments/:cid", commentController.UpdateComment)
			posts.DELETE("/:id/comments/:cid", commentController.DeleteComment)
			posts.POST("/:id/comments/:cid/react", commentController.ReactComment)
		}

		// User routes
		users := protected.Group("/users")
		{
			users.GET("/profile", userController.GetProfile)
			users.PUT("/profile", userController.UpdateProfile)
		}

		// Admin routes
		admin := protected.Group("/admin")
		{
			admin.DELETE("/users/:id/posts", adminController.DeleteUserPosts)
		}
	}
}
