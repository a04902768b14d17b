// AquaSense Core - Telemetry Upsert & Aggregation Engine
//
// This is the main entry point for the AquaSense Core service. It
// receives per-field water-quality measurements over MQTT, merges them
// into consolidated readings, and serves assembled time series with
// summaries and day rollups over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/aquasense/aquasense-core/migrations"

	"github.com/aquasense/aquasense-core/internal/api"
	"github.com/aquasense/aquasense-core/internal/archive"
	"github.com/aquasense/aquasense-core/internal/device"
	"github.com/aquasense/aquasense-core/internal/infrastructure/config"
	"github.com/aquasense/aquasense-core/internal/infrastructure/database"
	"github.com/aquasense/aquasense-core/internal/infrastructure/influxdb"
	"github.com/aquasense/aquasense-core/internal/infrastructure/logging"
	"github.com/aquasense/aquasense-core/internal/infrastructure/mqtt"
	"github.com/aquasense/aquasense-core/internal/ingest"
	"github.com/aquasense/aquasense-core/internal/metrics"
	"github.com/aquasense/aquasense-core/internal/notify"
	"github.com/aquasense/aquasense-core/internal/query"
	"github.com/aquasense/aquasense-core/internal/reading"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting AquaSense Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Storage and merge path
	registry := device.NewSQLiteRegistry(db.DB)
	store := reading.NewSQLiteStore(db.DB)
	merger := reading.NewMerger(store, registry)
	querySvc := query.NewService(store, cfg.Query.RollupWindowDays)

	m := metrics.New()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// WebSocket change notification hub
	hub := notify.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Connect to InfluxDB and start the reading archive (optional)
	var influxClient *influxdb.Client
	var archiver *archive.Archiver
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, influxdb.Config{
			URL:    cfg.InfluxDB.URL,
			Token:  cfg.InfluxDB.Token,
			Org:    cfg.InfluxDB.Org,
			Bucket: cfg.InfluxDB.Bucket,
		})
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		archiver = archive.New(influxClient, cfg.InfluxDB.BufferSize, cfg.InfluxDB.BreakerThresh, log)
		defer func() {
			log.Info("draining reading archive")
			archiver.Close()
		}()
	} else {
		log.Info("InfluxDB disabled, readings kept in SQLite only")
	}

	// Ingest pipeline: MQTT messages to registry upserts and merges
	var recorder ingest.Recorder
	if archiver != nil {
		recorder = archiver
	}
	ingestSvc := ingest.New(cfg.Ingest, merger, registry, hub, recorder, m, log)
	ingestSvc.Start(ctx)
	defer func() {
		log.Info("stopping ingest workers")
		ingestSvc.Close()
	}()

	if subErr := ingestSvc.Subscribe(mqttClient); subErr != nil {
		return fmt.Errorf("subscribing ingest handlers: %w", subErr)
	}
	log.Info("ingest pipeline started",
		"workers", cfg.Ingest.Workers,
		"queue_size", cfg.Ingest.QueueSize,
	)

	// HTTP API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		Query:    querySvc,
		Hub:      hub,
		Metrics:  m,
		MQTT:     mqttClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (stops accepting queries)
	// 2. Ingest workers (finish queued merges)
	// 3. Archive (drains to InfluxDB) and InfluxDB client
	// 4. MQTT
	// 5. Database

	log.Info("AquaSense Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AQUASENSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AQUASENSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when the archive is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
