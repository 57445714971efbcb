package main

import (
	"context"
	"fmt"
	"os"

	"github.com/resys-shop/backend/internal/db"
	"github.com/resys-shop/backend/internal/events"
	"github.com/resys-shop/backend/internal/handlers"
	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/observability"
	"github.com/resys-shop/backend/internal/repos"
	"github.com/resys-shop/backend/internal/server"
	"github.com/resys-shop/backend/internal/services"
	"github.com/resys-shop/backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	ctx := context.Background()
	if shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "resys-shop-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
	}); shutdown != nil {
		defer func() { _ = shutdown(context.Background()) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	taxonomyRepo := repos.NewTaxonomyRepo(thePG, log)
	taxonRepo := repos.NewTaxonRepo(thePG, log)
	taxonRuleRepo := repos.NewTaxonRuleRepo(thePG, log)
	classificationRepo := repos.NewClassificationRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)

	// Event bus
	log.Info("Setting up event bus from main...")
	busMode := utils.GetEnv("EVENT_BUS", "inproc", log)
	var bus events.Bus
	var inproc *events.InProcBus
	var redisBus *events.RedisBus
	if busMode == "redis" {
		redisBus, err = events.NewRedisBus(log)
		if err != nil {
			log.Error("Could not init RedisBus", "error", err)
			os.Exit(1)
		}
		bus = redisBus
	} else {
		busBuffer := utils.GetEnvAsInt("EVENT_BUS_BUFFER", 256, log)
		inproc = events.NewInProcBus(log, busBuffer)
		bus = inproc
	}

	// Services
	log.Info("Setting up Services from main...")
	hierarchyService := services.NewHierarchyService(thePG, log, taxonRepo)
	ruleEngineService := services.NewRuleEngineService(thePG, log)
	classificationService := services.NewClassificationService(thePG, log, taxonRepo, classificationRepo, productRepo, ruleEngineService, bus)
	taxonomyService := services.NewTaxonomyService(thePG, log, taxonomyRepo, taxonRepo, hierarchyService, bus)
	taxonService := services.NewTaxonService(thePG, log, taxonRepo, taxonRuleRepo, hierarchyService, bus)

	// Consumer
	if redisBus != nil {
		if err := redisBus.StartConsumer(ctx, classificationService.HandleEvent); err != nil {
			log.Error("Could not start redis consumer", "error", err)
			os.Exit(1)
		}
		defer redisBus.Close()
	} else {
		inproc.StartConsumer(ctx, classificationService.HandleEvent)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	taxonomyHandler := handlers.NewTaxonomyHandler(taxonomyService)
	taxonHandler := handlers.NewTaxonHandler(taxonService, classificationService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		TaxonomyHandler: taxonomyHandler,
		TaxonHandler:    taxonHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
