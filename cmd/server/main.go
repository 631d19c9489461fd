package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/can-karakoc/ai-marketplace-search/internal/catalog"
	"github.com/can-karakoc/ai-marketplace-search/internal/config"
	"github.com/can-karakoc/ai-marketplace-search/internal/handler"
	"github.com/can-karakoc/ai-marketplace-search/internal/repository"
	"github.com/can-karakoc/ai-marketplace-search/internal/service"
	"github.com/can-karakoc/ai-marketplace-search/internal/vocab"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Logging)
	log.Info().Str("version", Version).Str("build_time", BuildTime).Str("git_commit", GitCommit).Msg("ai-marketplace-search starting")

	gin.SetMode(cfg.Server.GinMode)

	// Amenity vocabulary: load-once, immutable afterwards
	vocabulary := vocab.Default()
	if cfg.Vocab.File != "" {
		vocabulary, err = vocab.LoadFile(cfg.Vocab.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Vocab.File).Msg("failed to load amenity vocabulary")
		}
		log.Info().Str("file", cfg.Vocab.File).Int("tags", len(vocabulary.Canonical())).Msg("loaded amenity vocabulary")
	}

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	listings, err := repo.ListListings(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load listings")
	}
	cat := catalog.New(listings)
	log.Info().Int("listings", cat.Len()).Msg("catalog loaded")

	// Declared as the interface so a disabled backend stays a true nil and
	// the nil checks downstream work.
	var aiClient service.AIClient
	if cfg.OpenAI.Enabled {
		aiClient = service.NewOpenAIClient(&cfg.OpenAI)
		log.Info().
			Str("api_base", cfg.OpenAI.APIBase).
			Str("chat_model", cfg.OpenAI.ChatModel).
			Str("embedding_model", cfg.OpenAI.EmbeddingModel).
			Msg("AI client initialized")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set - semantic search is unavailable and intent parsing falls back to heuristics")
	}

	pricePolicy, err := service.ParsePricePolicy(cfg.Ranking.PricePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid price policy")
	}

	intentExtractor := service.NewIntentExtractor(aiClient, vocabulary)
	embedder := service.NewEmbeddingProvider(aiClient, cfg.OpenAI.BatchSize, cfg.OpenAI.PoolSize)
	priceScorer := service.NewPriceScorer(pricePolicy)
	ranker := service.NewRanker(service.FusionWeights{
		Similarity: cfg.Ranking.WeightSimilarity,
		Amenity:    cfg.Ranking.WeightAmenity,
		Price:      cfg.Ranking.WeightPrice,
	})

	searchService := service.NewSearchService(cat, intentExtractor, embedder, priceScorer, ranker, vocabulary, repo, repo)

	// Embed listing descriptions once up front so queries only pay for
	// their own vector.
	if cfg.OpenAI.Enabled {
		embedded, errs := embedder.WarmCatalog(context.Background(), cat, repo)
		if len(errs) > 0 {
			log.Warn().Int("failed", len(errs)).Msg("some listings could not be embedded")
		}
		log.Info().Int("embedded", embedded).Msg("catalog warm-up finished")
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.AllowedOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"service":  "ai-marketplace-search",
			"version":  Version,
			"listings": cat.Len(),
		})
	})

	searchHandler := handler.NewSearchHandler(searchService, cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	reindexHandler := handler.NewReindexHandler(searchService)
	feedbackHandler := handler.NewFeedbackHandler(searchService)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/search", searchHandler.Search)
		apiV1.GET("/listings/:id", searchHandler.GetListing)
		apiV1.POST("/reindex", reindexHandler.Reindex)
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
