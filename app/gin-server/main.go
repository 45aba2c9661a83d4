package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/prepvoice/prepvoice/config"
	"github.com/prepvoice/prepvoice/internal/api/handlers"
	"github.com/prepvoice/prepvoice/internal/api/middleware"
	"github.com/prepvoice/prepvoice/internal/api/routes"
	"github.com/prepvoice/prepvoice/internal/cache"
	"github.com/prepvoice/prepvoice/internal/channel"
	"github.com/prepvoice/prepvoice/internal/logger"
	"github.com/prepvoice/prepvoice/internal/pipelines"
	"github.com/prepvoice/prepvoice/internal/providers/llm"
	mongorepo "github.com/prepvoice/prepvoice/internal/repositories/mongo"
	pgrepo "github.com/prepvoice/prepvoice/internal/repositories/postgres"
	"github.com/prepvoice/prepvoice/internal/services"
	"github.com/prepvoice/prepvoice/internal/templates"
	"github.com/prepvoice/prepvoice/internal/workers"
)

func main() {
	_ = godotenv.Load()
	l := logger.New()

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	l.Info("MongoDB connected")

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	ctx := context.Background()

	gen, err := llm.NewVertexGemini(ctx, os.Getenv("GCP_PROJECT_ID"), os.Getenv("VERTEX_LOCATION"), os.Getenv("VERTEX_MODEL"))
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer gen.Close()

	catalog, err := templates.Load(envOr("TEMPLATES_PATH", "config/templates.yaml"))
	if err != nil {
		log.Fatalf("template catalog error: %v", err)
	}

	db := config.MongoDatabase()
	interviewRepo := mongorepo.NewInterviewRepo(db)
	feedbackRepo := mongorepo.NewFeedbackRepo(db)
	userRepo := pgrepo.NewUserRepo(config.PostgresDB)
	turnRepo := pgrepo.NewTranscriptRepo(config.PostgresDB)

	stash := cache.NewScorecardStash(cache.NewRedisCache(config.RedisClient), 0)

	scorecards := pipelines.NewScorecardPipeline(gen, interviewRepo, feedbackRepo, turnRepo, stash, l)
	feedbacks := pipelines.NewFeedbackPipeline(gen, feedbackRepo, l)
	bundle := &pipelines.Bundle{Scorecards: scorecards, Feedbacks: feedbacks}

	userSvc := services.NewUserService(userRepo, os.Getenv("JWT_SECRET"))
	interviewSvc := services.NewInterviewService(interviewRepo, feedbackRepo)

	pool := &workers.FeedbackWorkerPool{
		Redis:      config.RedisClient,
		Interviews: interviewRepo,
		Feedback:   feedbackRepo,
		Turns:      turnRepo,
		Pipeline:   feedbacks,
		Logger:     l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("feedback worker init error: %v", err)
	}

	newChannel := func() channel.Channel {
		return channel.NewClient(channel.Config{
			APIKey:     os.Getenv("CHANNEL_API_KEY"),
			APIBaseURL: os.Getenv("CHANNEL_API_BASE_URL"),
		})
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(userSvc),
		Interview: handlers.NewInterviewHandler(interviewSvc),
		Scorecard: handlers.NewScorecardHandler(scorecards, stash),
		Template:  handlers.NewTemplateHandler(catalog),
		Feedback:  handlers.NewFeedbackHandler(config.RedisClient, ""),
		WS:        handlers.NewWSHandler(interviewSvc, catalog, bundle, newChannel, os.Getenv("CHANNEL_ASSISTANT_ID"), l),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
