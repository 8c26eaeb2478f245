package main

import (
	"context"
	"log"
	"time"

	"codpage_back_end/internal/cache"
	"codpage_back_end/internal/cod"
	"codpage_back_end/internal/config"
	"codpage_back_end/internal/database"
	"codpage_back_end/internal/handlers"
	"codpage_back_end/internal/middleware"
	"codpage_back_end/internal/mockapi"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/pipeline"
	"codpage_back_end/internal/routes"
	"codpage_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	conns, err := database.ConnectDatabases(cfg)
	if err != nil {
		log.Fatal("❌ Initialisation des connexions impossible: ", err)
	}
	defer conns.Close()

	api := buildMockAPI(cfg, conns)
	p := buildPipeline(cfg, conns)

	// ✅ Pages publiées et rate limit : Redis si disponible
	var pages *cache.PageStore
	var counter *cache.RateCounter
	if conns.Redis != nil {
		pages = cache.NewRedisPageStore(conns.Redis, cfg.BaseURL)
		counter = cache.NewRateCounter(conns.Redis)
	} else {
		log.Println("⚠️ Redis absent : pages publiées en mémoire, rate limit désactivé")
		pages = cache.NewMemoryPageStore(cfg.BaseURL)
	}

	var notifier *cod.Notifier
	if cfg.SMTPHost != "" {
		notifier = cod.NewNotifier(services.NewMailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom))
		log.Println("✅ E-mails de confirmation COD activés")
	}

	limiter := middleware.NewGenerateLimiter(counter, cfg.GenerateMaxPerMinute)
	h := handlers.New(api, p, pages, cod.NewSubmitter(cfg.CODDelay, notifier), limiter)

	r := gin.Default()
	routes.RegisterRoutes(r, h, cfg, limiter)

	log.Println("🚀 Serveur CODPage lancé sur le port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("❌ Arrêt du serveur: ", err)
	}
}

func buildMockAPI(cfg *config.Config, conns *database.Connections) *mockapi.API {
	repos := mockapi.MemoryRepositories()
	if cfg.StoreBackend == "redis" {
		repos = mockapi.Repositories{
			Users:    database.NewRedisRepository[models.User](conns.Redis, "mock:users", "utilisateur"),
			Products: database.NewRedisRepository[models.Product](conns.Redis, "mock:products", "produit"),
			Orders:   database.NewRedisRepository[models.Order](conns.Redis, "mock:orders", "commande"),
		}
		log.Println("✅ Collections mock stockées dans Redis")
	}

	var indexer mockapi.Indexer
	if conns.Elastic != nil {
		indexer = services.NewElasticIndex(conns.Elastic, "products")
	}

	if cfg.SeedData {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		seeder := mockapi.New(repos, indexer, mockapi.Options{})
		if err := seeder.Seed(ctx); err != nil {
			log.Println("⚠️ Seed impossible:", err)
		}
	}

	opts := mockapi.Options{Latency: cfg.MockLatency}
	if cfg.MockFaultRate > 0 {
		opts.Faults = mockapi.NewRandomFaults(cfg.MockFaultRate, uint64(time.Now().UnixNano()))
		log.Printf("⚠️ Injection de pannes activée (taux %.2f)", cfg.MockFaultRate)
	}
	return mockapi.New(repos, indexer, opts)
}

func buildPipeline(cfg *config.Config, conns *database.Connections) *pipeline.Pipeline {
	pc := pipeline.Config{
		Primary: services.NewChromeScraper(cfg.ChromeWSURL, cfg.ScrapeAttempts, cfg.ScrapeInterval, cfg.ExternalTimeout),
	}

	if cfg.SearchAPIKey != "" {
		pc.Fallback = services.NewSearchExtractor(cfg.SearchAPIURL, cfg.SearchAPIKey, cfg.ExternalTimeout)
	} else {
		log.Println("⚠️ SEARCH_API_KEY absent : pas d'extraction de secours")
	}

	if cfg.LLMAPIKey != "" {
		pc.LLM = services.NewLLMClient(cfg.LLMURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.ExternalTimeout)
	} else {
		log.Println("⚠️ LLM_API_KEY absent : contenus par défaut")
	}

	if cfg.RemoveBgAPIKey != "" && conns.MinIO != nil {
		remover := services.NewBackgroundRemover(cfg.RemoveBgURL, cfg.RemoveBgAPIKey, cfg.ExternalTimeout)
		cdn := services.NewMinioCDN(conns.MinIO, cfg.MinioBucket, cfg.MinioPublicURL)
		pc.Images = services.NewImagePipeline(remover, cdn)
	} else {
		log.Println("⚠️ Traitement d'images désactivé : images d'origine conservées")
	}

	return pipeline.New(pc)
}
