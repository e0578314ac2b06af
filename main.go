// package main provides the entry point for the relman-backend microservice:
// it wires the database, cache, Kafka producer and services together and
// serves the REST and GraphQL APIs.
package main

import (
	"log"
	"strings"

	"github.com/releaseops/relman-backend/config"
	"github.com/releaseops/relman-backend/database"
	release "github.com/releaseops/relman-backend/events/modules/releases"
	"github.com/releaseops/relman-backend/internal/api"
	"github.com/releaseops/relman-backend/internal/cache"
	"github.com/releaseops/relman-backend/internal/services"
	"github.com/releaseops/relman-backend/restapi"
	"github.com/releaseops/relman-backend/util"
)

func main() {
	cfg, err := config.Load(util.GetEnvDefault("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db := database.InitializeDatabase()
	store := database.NewArangoStore(db)

	// Kafka producer is optional: without brokers the save path skips the
	// release.saved event.
	var publisher services.ReleasePublisher
	if cfg.KafkaBrokers != "" {
		producer := release.NewReleaseProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, database.InitLogger())
		defer producer.Close()
		publisher = producer
	}

	deps := restapi.Deps{
		Store:      store,
		Releases:   services.NewReleaseService(store, cache.NewMemory(), cfg, publisher),
		Advisories: services.NewAdvisoryService(store, cfg),
		Checklists: services.NewChecklistService(store, cfg),
	}

	app := api.NewFiberApp(deps)

	// Start server
	log.Printf("Starting server on port %s", cfg.Port)
	log.Printf("GraphQL endpoint available at /api/v1/graphql")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
