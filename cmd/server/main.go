package main

import (
	"github.com/mathewgeejo/would-you-rather/internal/config"
	"github.com/mathewgeejo/would-you-rather/internal/database"
	"github.com/mathewgeejo/would-you-rather/internal/handlers"
	"github.com/mathewgeejo/would-you-rather/internal/middleware"
	"github.com/mathewgeejo/would-you-rather/internal/services"
	"github.com/mathewgeejo/would-you-rather/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// @title           Would You Rather API
// @version         1.0
// @description     Social voting API with real-time rooms and gamified progression
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	authService := services.NewAuthService(db, cfg.JWTSecret)
	userService := services.NewUserService(db)
	questionService := services.NewQuestionService(db)
	progressionService := services.NewProgressionService(db)
	badgeService := services.NewBadgeService(db)
	voteService := services.NewVoteService(db, progressionService, badgeService)
	chatService := services.NewChatService(db)
	leaderboardService := services.NewLeaderboardService(db, rdb)
	aiService := services.NewAIGenerateService(cfg.AIAPIKey, cfg.AIAPIURL, cfg.AIModel)

	hub := ws.NewHub(chatService)

	authHandler := handlers.NewAuthHandler(authService)
	voteHandler := handlers.NewVoteHandler(voteService, leaderboardService, userService, hub)
	questionHandler := handlers.NewQuestionHandler(
		questionService, progressionService, badgeService,
		chatService, leaderboardService, userService, hub,
	)
	userHandler := handlers.NewUserHandler(userService, badgeService, leaderboardService)
	badgeHandler := handlers.NewBadgeHandler(badgeService)
	wsHandler := handlers.NewWSHandler(hub, authService, userService)
	aiHandler := handlers.NewAIGenerateHandler(questionService, aiService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		api.GET("/questions", questionHandler.List)
		api.GET("/questions/:id", questionHandler.Get)
		api.POST("/questions/:id/share", questionHandler.Share)
		api.GET("/leaderboard", userHandler.Leaderboard)
		api.GET("/users/:id", userHandler.Profile)
		api.GET("/users/:id/badges", userHandler.Badges)

		authed := api.Group("")
		authed.Use(middleware.JWTAuth(authService))
		{
			authed.GET("/users/me", userHandler.Me)
			authed.DELETE("/users/me", userHandler.DeactivateMe)
			authed.GET("/badges", badgeHandler.List)

			authed.POST("/questions", questionHandler.Create)
			authed.POST("/questions/:id/flag", questionHandler.Flag)
			authed.GET("/questions/:id/vote", voteHandler.MyVote)
			authed.GET("/questions/:id/messages", questionHandler.History)
			authed.GET("/questions/:id/room", wsHandler.RoomMembers)
			authed.GET("/questions/ai-status", aiHandler.CheckAI)
			authed.POST("/questions/generate", aiHandler.Generate)

			authed.POST("/votes/:questionId", voteHandler.Submit)
			authed.PATCH("/votes/:questionId", voteHandler.Change)
			authed.GET("/votes/question/:id", voteHandler.QuestionVotes)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuth(authService), middleware.AdminAuth())
		{
			admin.DELETE("/votes/:voteId", voteHandler.Delete)
			admin.GET("/questions/pending", questionHandler.ListPending)
			admin.POST("/questions/:id/moderate", questionHandler.Moderate)
			admin.DELETE("/questions/:id", questionHandler.Delete)
			admin.POST("/badges", badgeHandler.Create)
		}
	}

	logrus.Infof("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("failed to start server: %v", err)
	}
}
