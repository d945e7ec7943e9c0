package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/httpapi"
	"stealthcompany.com/healthloader/internal/metrics"
	"stealthcompany.com/healthloader/internal/pipeline"
	"stealthcompany.com/healthloader/internal/source"
	"stealthcompany.com/healthloader/internal/store"
	"stealthcompany.com/healthloader/pkg/zerolog_config"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("Fatal error")
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for container/local parity; flags below default from env.
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	var (
		csvPath      = flag.String("csv", getEnvOrDefault("CSV_PATH", ""), "Path to the healthcare CSV file")
		chunkSize    = flag.Int("chunk-size", 5000, "Number of rows per processing chunk")
		couchbaseURL = flag.String("couchbase-url", getEnvOrDefault("COUCHBASE_URL", "couchbase://localhost"), "Couchbase connection string")
		username     = flag.String("couchbase-user", getEnvOrDefault("COUCHBASE_USERNAME", "loader"), "Couchbase username")
		password     = flag.String("couchbase-password", getEnvOrDefault("COUCHBASE_PASSWORD", ""), "Couchbase password")
		bucketName   = flag.String("bucket", getEnvOrDefault("COUCHBASE_BUCKET", "healthcare"), "Couchbase bucket name")
	)
	flag.Parse()

	zerolog_config.Startup(os.Getenv("ELASTICSEARCH_URL"), "healthloader")

	log.Info().Msg("Starting healthloader service")

	if *csvPath == "" {
		flag.Usage()
		return errors.New("missing required -csv flag")
	}

	metrics.StartSystemMetricsCollection(15 * time.Second)
	httpapi.Serve(getEnvOrDefault("LOADER_PORT", "8081"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	conn, err := store.Connect(store.Config{
		URL:      *couchbaseURL,
		Username: *username,
		Password: *password,
		Bucket:   *bucketName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Couchbase connection")
			return
		}
		log.Info().Msg("Couchbase connection closed")
	}()

	st, err := store.Setup(ctx, conn)
	if err != nil {
		return err
	}

	reader, err := source.Open(*csvPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	loader := &pipeline.Loader{
		Source:         reader,
		ChunkSize:      *chunkSize,
		Patients:       st.Patients,
		Admissions:     st.Admissions,
		MedicalRecords: st.MedicalRecords,
		Billing:        st.Billing,
	}

	if _, err := loader.Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("Healthcare data load completed successfully")
	return nil
}

// Helper function to get environment variable with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
