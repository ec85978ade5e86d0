package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pigjjun/board/backend/internal/config"
	"github.com/pigjjun/board/backend/internal/database"
	"github.com/pigjjun/board/backend/internal/handlers"
	"github.com/pigjjun/board/backend/internal/middleware"
)

type Server struct {
	cfg     config.Config
	db      database.Service
	handler *handlers.Handler
	limiter *middleware.RateLimiter
}

func New(cfg config.Config, db database.Service, deps handlers.Deps) *Server {
	return &Server{
		cfg:     cfg,
		db:      db,
		handler: handlers.NewHandler(deps),
		limiter: middleware.NewRateLimiter(cfg.VoteRateLimit, time.Minute),
	}
}

// NewHTTPServer wraps the router in an http.Server listening on cfg.Port
func (s *Server) NewHTTPServer() *http.Server {
	server := &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", s.cfg.Port)
	return server
}

func (s *Server) Close() {
	s.limiter.Close()
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		stats := gin.H{"status": "ok"}
		if s.db != nil {
			db := s.db.Health()
			stats["database"] = db
			if db["status"] != "up" {
				c.JSON(http.StatusServiceUnavailable, stats)
				return
			}
		}
		c.JSON(http.StatusOK, stats)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	secret := []byte(s.cfg.JWTSecret)
	h := s.handler

	api := r.Group("/api")
	api.Use(middleware.Device())
	{
		// Auth routes (public)
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)

		api.GET("/preferences", h.Preferences.Get)
		api.PUT("/preferences", h.Preferences.Update)

		// Public reads; a token, when sent, personalizes the answer
		public := api.Group("")
		public.Use(middleware.OptionalAuth(secret))
		{
			public.GET("/posts", h.Post.GetPosts)
			public.GET("/posts/top", h.Post.TopPosts)
			public.GET("/posts/:id", h.Post.GetPost)
			public.GET("/posts/:id/comments", h.Comment.GetComments)
			public.GET("/posts/:id/vote", h.Vote.GetVote)
			public.GET("/posts/:id/live", h.Live.Stream)
			public.GET("/users/:id", h.User.GetUserProfile)
			public.GET("/search", h.Search.Search)

			// anonymous devices vote as well
			public.POST("/posts/:id/vote", middleware.RateLimit(s.limiter), h.Vote.VotePost)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(secret))
		{
			protected.GET("/me", h.Auth.GetMe)

			protected.POST("/posts", h.Post.CreatePost)
			protected.PUT("/posts/:id", h.Post.UpdatePost)
			protected.DELETE("/posts/:id", h.Post.DeletePost)

			protected.POST("/posts/:id/comments", h.Comment.CreateComment)
			protected.PUT("/posts/:id/comments/:commentId", h.Comment.UpdateComment)
			protected.DELETE("/posts/:id/comments/:commentId", h.Comment.DeleteComment)
			protected.POST("/posts/:id/comments/:commentId/like", h.Comment.LikeComment)
			protected.POST("/posts/:id/comments/:commentId/replies", h.Comment.CreateReply)
			protected.PUT("/posts/:id/comments/:commentId/replies/:replyId", h.Comment.UpdateReply)
			protected.DELETE("/posts/:id/comments/:commentId/replies/:replyId", h.Comment.DeleteReply)

			protected.PUT("/users/:id", h.User.UpdateUserProfile)
			protected.DELETE("/users/:id", h.User.DeleteAccount)

			protected.POST("/media", h.Media.Upload)
		}
	}

	return r
}
