package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ryudhis/nuxt-chat-bot/internal/api/handlers"
	"github.com/ryudhis/nuxt-chat-bot/internal/api/middleware"
	"github.com/ryudhis/nuxt-chat-bot/internal/config"
	"github.com/ryudhis/nuxt-chat-bot/internal/database"
	"github.com/ryudhis/nuxt-chat-bot/internal/gemini"
	"github.com/ryudhis/nuxt-chat-bot/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database connections
	db := database.InitDB(cfg)
	redisClient := database.InitRedis(cfg)

	st := store.New(db, redisClient)
	client := gemini.NewClient(cfg.GoogleAPIKey, cfg.GeminiDefaultModel, cfg.GeminiVisionModel)

	// Setup and run the server
	r := setupRouter(st, client, cfg)
	port := cfg.ServerPort

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupRouter(st store.Store, client *gemini.Client, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// Configure CORS middleware
	headers := cors.DefaultConfig()
	headers.AllowOrigins = []string{cfg.FrontendURL}
	headers.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	headers.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	headers.ExposeHeaders = []string{"Content-Length"}
	headers.AllowCredentials = true
	r.Use(cors.New(headers))

	// Initialize handlers and middleware with dependencies
	handler := handlers.NewHandler(st, client, nil, cfg)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	// API routes
	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
		}

		// The chat and upload endpoints are called with a session ID the
		// frontend already owns, so they are not behind the JWT middleware
		api.POST("/chat", handler.StreamChat)
		api.POST("/upload", handler.Upload)

		sessions := api.Group("/sessions", authMiddleware.RequireAuth())
		{
			sessions.GET("", handler.ListSessions)
			sessions.POST("", handler.CreateSession)
			sessions.GET("/:id", handler.GetSession)
		}
	}

	return r
}
