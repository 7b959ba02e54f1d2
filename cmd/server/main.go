// File: cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/lawyer/esutil"
	"kanoonwise_backend/internal/platform/database"
	platformElasticsearch "kanoonwise_backend/internal/platform/elasticsearch"
	"kanoonwise_backend/internal/platform/logger"
	"kanoonwise_backend/internal/seed"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate-up", "migrate-down", "seed-up", "seed-down":
			runDBCommand(os.Args[1])
			return
		case "sync-lawyers":
			syncCmd := flag.NewFlagSet("sync-lawyers", flag.ExitOnError)
			batchSize := syncCmd.Int("batch-size", 100, "Batch size for syncing lawyer profiles")
			esRefresh := syncCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")
			syncCmd.Parse(os.Args[2:])
			runLawyerSyncCommand(*batchSize, *esRefresh)
			return
		}
	}

	startServer()
}

// runDBCommand handles the migration and seed subcommands, which only need
// config, logger and a database handle.
func runDBCommand(command string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	switch command {
	case "migrate-up":
		if err := database.MigrateUp(cfg, appLogger); err != nil {
			appLogger.Fatal("Migration up failed", zap.Error(err))
		}
		appLogger.Info("Migrations applied.")
	case "migrate-down":
		if err := database.MigrateDown(cfg, appLogger); err != nil {
			appLogger.Fatal("Migration down failed", zap.Error(err))
		}
		appLogger.Info("Last migration rolled back.")
	case "seed-up", "seed-down":
		db, err := database.NewGORM(cfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer database.CloseGORMDB(db)

		ctx := context.Background()
		if command == "seed-up" {
			err = seed.Up(ctx, db, appLogger)
		} else {
			err = seed.Down(ctx, db, appLogger)
		}
		if err != nil {
			appLogger.Fatal("Seed command failed", zap.String("command", command), zap.Error(err))
		}
	}
}

func runLawyerSyncCommand(batchSize int, esRefresh string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for sync", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize Elasticsearch client for sync", zap.Error(err))
	}
	if esClient == nil {
		appLogger.Fatal("FATAL: Elasticsearch client is nil, ensure ELASTICSEARCH_URL is set.")
	}

	if err := platformElasticsearch.CreateLawyersIndexIfNotExists(esClient, appLogger); err != nil {
		appLogger.Fatal("FATAL: Failed to create/verify Elasticsearch index before sync", zap.Error(err))
	}

	if err := runLawyerSync(db, esClient, appLogger, batchSize, esRefresh); err != nil {
		appLogger.Fatal("FATAL: Lawyer synchronization failed", zap.Error(err))
	}
	appLogger.Info("Lawyer synchronization completed successfully.")
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if server.ESClient != nil {
		if err := platformElasticsearch.CreateLawyersIndexIfNotExists(server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create Elasticsearch lawyers index.", zap.Error(err))
		}
	} else {
		server.AppLogger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

// runLawyerSync bulk-indexes all lawyer profiles into Elasticsearch.
func runLawyerSync(
	db *gorm.DB,
	esClient *platformElasticsearch.ESClientWrapper,
	logger *zap.Logger,
	batchSize int,
	esRefresh string,
) error {
	logger.Info("Starting lawyer synchronization to Elasticsearch...",
		zap.Int("batchSize", batchSize),
		zap.String("esRefreshPolicy", esRefresh),
	)

	offset := 0
	totalSynced := 0
	totalFailed := 0

	for {
		var profiles []lawyer.Profile
		if err := db.Order("created_at").Offset(offset).Limit(batchSize).Find(&profiles).Error; err != nil {
			return fmt.Errorf("failed to fetch batch at offset %d: %w", offset, err)
		}
		if len(profiles) == 0 {
			break
		}

		var bulkRequestBody strings.Builder
		for i := range profiles {
			p := &profiles[i]
			docJSON, errDoc := esutil.ProfileToElasticsearchDoc(p)
			if errDoc != nil {
				logger.Error("Failed to convert lawyer profile to Elasticsearch document",
					zap.String("profileID", p.ID.String()),
					zap.Error(errDoc),
				)
				totalFailed++
				continue
			}
			action := fmt.Sprintf(`{ "index" : { "_index" : "%s", "_id" : "%s" } }%s`,
				platformElasticsearch.LawyersIndexName, p.ID.String(), "\n")
			bulkRequestBody.WriteString(action)
			bulkRequestBody.WriteString(docJSON)
			bulkRequestBody.WriteString("\n")
		}

		if bulkRequestBody.Len() > 0 {
			req := esapi.BulkRequest{
				Body:    strings.NewReader(bulkRequestBody.String()),
				Refresh: esRefresh,
			}
			res, errBulk := req.Do(context.Background(), esClient.Client)
			if errBulk != nil {
				return fmt.Errorf("bulk request failed at offset %d: %w", offset, errBulk)
			}

			var bulkResponse struct {
				Errors bool `json:"errors"`
				Items  []struct {
					Index struct {
						ID     string                 `json:"_id"`
						Status int                    `json:"status"`
						Error  map[string]interface{} `json:"error,omitempty"`
					} `json:"index"`
				} `json:"items"`
			}
			if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
				res.Body.Close()
				return fmt.Errorf("failed to parse bulk response at offset %d: %w", offset, err)
			}
			res.Body.Close()

			for _, item := range bulkResponse.Items {
				if item.Index.Error != nil {
					logger.Error("Failed to index lawyer profile",
						zap.String("profileID", item.Index.ID),
						zap.Any("error", item.Index.Error),
						zap.Int("status", item.Index.Status),
					)
					totalFailed++
				} else {
					totalSynced++
				}
			}
		}

		offset += len(profiles)
	}

	logger.Info("Lawyer synchronization process finished.",
		zap.Int("totalSynced", totalSynced),
		zap.Int("totalFailed", totalFailed),
	)
	if totalFailed > 0 {
		return fmt.Errorf("%d lawyer profiles failed to sync", totalFailed)
	}
	return nil
}
