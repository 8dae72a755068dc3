package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dobroplatform/dobro-max-bot/internal/api"
	"github.com/dobroplatform/dobro-max-bot/internal/api/middleware"
	"github.com/dobroplatform/dobro-max-bot/internal/bot"
	"github.com/dobroplatform/dobro-max-bot/internal/db"
	"github.com/dobroplatform/dobro-max-bot/internal/ws"
	"github.com/dobroplatform/dobro-max-bot/pkg/maxbot"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	port := getEnv("PORT", "3000")
	botToken := getEnv("BOT_TOKEN", "")
	maxAPIURL := getEnv("MAX_API_URL", "https://platform-api.max.ru")
	dbPath := getEnv("DB_PATH", "./data/dobro.db")
	jwtSecret := getEnv("JWT_SECRET", "")
	adminPasswordHash := getEnv("ADMIN_PASSWORD_HASH", "")
	webhookURL := getEnv("WEBHOOK_URL", "")

	if botToken == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize database
	database, err := db.New(db.Config{Path: dbPath})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("✅ Database ready")

	// Initialize MAX client and run the startup capability check
	maxClient := maxbot.NewClient(maxbot.Config{
		Token:   botToken,
		BaseURL: maxAPIURL,
	})

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	info, err := maxClient.GetMe(checkCtx)
	cancel()
	if err != nil {
		log.Printf("Warning: MAX API capability check failed: %v", err)
	} else {
		log.Printf("✅ Connected to MAX as @%s", info.Username)
	}

	// Initialize the conversation engine
	messenger := bot.NewMaxMessenger(maxClient)
	engine := bot.NewEngine(database, messenger)

	// Initialize handlers
	feed := ws.NewHub()
	webhookHandler := api.NewWebhookHandler(engine, feed, botToken)
	requestsHandler := api.NewRequestsHandler(database)
	orgsHandler := api.NewOrganizationsHandler(database)
	authHandler := api.NewAuthHandler(adminPasswordHash, jwtSecret)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.PerIP(100.0/60.0, 200))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "dobro-max-bot",
			"time":    time.Now().Unix(),
		})
	})

	// MAX webhook
	router.POST("/webhook/:token", webhookHandler.Handle)

	// Operator auth
	router.POST("/api/auth/login", authHandler.Login)

	// Catalog REST surface (public, read + respond)
	requests := router.Group("/api/requests")
	{
		requests.GET("", requestsHandler.List)
		requests.GET("/:id", requestsHandler.Get)
		requests.POST("/:id/respond", requestsHandler.Respond)
	}

	// Organizations
	orgs := router.Group("/api/organizations")
	{
		orgs.POST("/register", orgsHandler.Register)
		orgs.GET("/:id", orgsHandler.Get)
	}

	// Admin routes (operator JWT)
	admin := router.Group("/api/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/organizations/:id/verify", orgsHandler.Verify)
	}

	// Operator live feed
	router.GET("/ws/feed", middleware.JWTAuth(jwtSecret), middleware.RequireAdmin(), feed.HandleFeed)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("🤖 dobro-max-bot listening on :%s", port)
		if webhookURL != "" {
			log.Printf("📡 Webhook URL: %s/webhook/<token>", webhookURL)
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
