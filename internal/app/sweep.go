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
	"github.com/PlumyCat/trad-bot-src/internal/globaltime"
	"github.com/PlumyCat/trad-bot-src/internal/logging"
)

// runSweep removes output artifacts older than the configured retention age.
// Useful as a scheduled job next to a running server, or for manual cleanup.
func runSweep(args []string) int {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Sweep timeout")
	dryRun := fs.Bool("dry-run", false, "List stale artifacts without deleting them")

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

	infos, err := objects.List(ctx, cfg.OutputBucket)
	if err != nil {
		logger.Error().Err(err).Msg("sweep listing failed")
		fmt.Fprintf(os.Stderr, "Sweep listing failed: %v\n", err)
		return 1
	}

	cutoff := globaltime.UTC().Add(-cfg.ArtifactMaxAge)
	removed := 0
	for _, info := range infos {
		if !info.LastModified.Before(cutoff) {
			continue
		}
		if *dryRun {
			fmt.Printf("would remove %s (modified %s)\n", info.Name, info.LastModified.Format(time.RFC3339))
			continue
		}
		if err := objects.Delete(ctx, cfg.OutputBucket, info.Name); err != nil {
			logger.Warn().Err(err).Str("object", info.Name).Msg("sweep delete failed")
			continue
		}
		removed++
	}

	logger.Info().Int("removed", removed).Int("scanned", len(infos)).Msg("sweep finished")
	fmt.Printf("Removed %d of %d artifacts\n", removed, len(infos))
	return 0
}
