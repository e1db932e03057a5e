package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/tradepeer/tradepeer-api/internal/auth"
	"github.com/tradepeer/tradepeer-api/internal/database"
	"github.com/tradepeer/tradepeer-api/internal/ratings"
	"github.com/tradepeer/tradepeer-api/internal/social"
	"github.com/tradepeer/tradepeer-api/internal/stats"
	"github.com/tradepeer/tradepeer-api/internal/trades"
	"github.com/tradepeer/tradepeer-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the API server with graceful shutdown support
// It sets up all required services, database connections, and API routes
func main() {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "tradepeer.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "tradepeer-secret-key"
	}

	// Initialize database
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(jwtSecret, db)
	authHandlers := auth.NewGinHandlers(authService)

	tradesService := trades.NewService(db)
	tradesHandlers := trades.NewGinHandlers(tradesService)

	ratingsService := ratings.NewService(db)
	ratingsHandlers := ratings.NewGinHandlers(ratingsService)

	socialService := social.NewService(db)
	socialHandlers := social.NewGinHandlers(socialService)

	statsService := stats.NewService(db)
	statsHandlers := stats.NewGinHandlers(statsService, authService)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, jwtSecret, authHandlers, tradesHandlers, ratingsHandlers, socialHandlers, statsHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for sign-up and sign-in
// - Mutation routes: Protected by JWT authentication
// - Read routes: Public, with optional viewer context for own-state fields
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	tradesHandlers *trades.GinHandlers,
	ratingsHandlers *ratings.GinHandlers,
	socialHandlers *social.GinHandlers,
	statsHandlers *stats.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandlers.SignUpHandler())
			authGroup.POST("/signin", authHandlers.SignInHandler())
		}

		// Trade and social mutations
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtSecret))
		{
			protected.POST("/trades", tradesHandlers.SubmitTradeHandler())
			protected.PUT("/trades/:trade_id", tradesHandlers.UpdateTradeHandler())
			protected.DELETE("/trades/:trade_id", tradesHandlers.DeleteTradeHandler())

			protected.POST("/trades/:trade_id/ratings", ratingsHandlers.UpsertRatingHandler())
			protected.PUT("/ratings/:rating_id", ratingsHandlers.UpdateRatingHandler())
			protected.DELETE("/ratings/:rating_id", ratingsHandlers.RemoveRatingHandler())

			protected.POST("/trades/:trade_id/like", socialHandlers.ToggleLikeHandler())
			protected.POST("/trades/:trade_id/comments", socialHandlers.AddCommentHandler())
			protected.DELETE("/comments/:comment_id", socialHandlers.RemoveCommentHandler())
		}

		// Read routes
		reads := v1.Group("")
		reads.Use(middleware.OptionalJWTAuth(jwtSecret))
		{
			reads.GET("/feed", statsHandlers.FeedHandler())
			reads.GET("/trades/:trade_id", statsHandlers.TradeDetailHandler())
			reads.GET("/trades/:trade_id/comments", socialHandlers.ListCommentsHandler())
			reads.GET("/profiles/:username", statsHandlers.ProfileHandler())
			reads.GET("/rankings", statsHandlers.RankingsHandler())
		}
	}
}
