package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/PlumyCat/trad-bot-src/internal/blobstore"
	"github.com/PlumyCat/trad-bot-src/internal/cli"
	"github.com/PlumyCat/trad-bot-src/internal/config"
	"github.com/PlumyCat/trad-bot-src/internal/logging"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Storage check timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	objects, err := blobstore.NewMinioStore(blobstore.MinioOptions{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Region:    cfg.StorageRegion,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize object store: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := objects.EnsureAreas(ctx, cfg.InputBucket, cfg.OutputBucket); err != nil {
		logger.Error().Err(err).Msg("storage health check failed")
		fmt.Fprintf(os.Stderr, "Storage health check failed: %v\n", err)
		return 1
	}

	logger.Info().
		Str("endpoint", cfg.StorageEndpoint).
		Str("input_area", cfg.InputBucket).
		Str("output_area", cfg.OutputBucket).
		Msg("storage reachable")
	fmt.Println("OK")
	return 0
}
