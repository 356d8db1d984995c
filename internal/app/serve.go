package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/PlumyCat/trad-bot-src/internal/blobstore"
	"github.com/PlumyCat/trad-bot-src/internal/cli"
	"github.com/PlumyCat/trad-bot-src/internal/config"
	"github.com/PlumyCat/trad-bot-src/internal/delivery"
	"github.com/PlumyCat/trad-bot-src/internal/httpapi"
	"github.com/PlumyCat/trad-bot-src/internal/logging"
	"github.com/PlumyCat/trad-bot-src/internal/state"
	"github.com/PlumyCat/trad-bot-src/internal/translation"
	"github.com/PlumyCat/trad-bot-src/internal/workflow"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	addr := fs.String("addr", "", "Listen address, overrides TRADBOT_LISTEN_ADDR")
	readTimeout := fs.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

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
		logger.Error().Err(err).Msg("serve failed to initialize object store")
		fmt.Fprintf(os.Stderr, "Failed to initialize object store: %v\n", err)
		return 1
	}

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer setupCancel()
	if err := objects.EnsureAreas(setupCtx, cfg.InputBucket, cfg.OutputBucket); err != nil {
		logger.Error().Err(err).Msg("serve failed to prepare storage areas")
		fmt.Fprintf(os.Stderr, "Failed to prepare storage areas: %v\n", err)
		return 1
	}

	translator := translation.NewClient(translation.ClientOptions{
		Endpoint: cfg.TranslatorEndpoint,
		Key:      cfg.TranslatorKey,
	}, logger)

	deliverer := delivery.NewDispatcher(delivery.Options{
		ClientID:     cfg.GraphClientID,
		ClientSecret: cfg.GraphClientSecret,
		TenantID:     cfg.GraphTenantID,
		Folder:       cfg.DeliveryFolder,
		Enabled:      cfg.DeliveryEnabled,
	}, logger)

	registry := state.NewStore()

	coordinator := workflow.NewCoordinator(objects, translator, registry, deliverer, workflow.Options{
		InputArea:      cfg.InputBucket,
		OutputArea:     cfg.OutputBucket,
		LocatorTTL:     cfg.LocatorTTL,
		DownloadTTL:    cfg.DownloadTTL,
		CancelGrace:    cfg.CancelGrace,
		ArtifactMaxAge: cfg.ArtifactMaxAge,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.SweepSchedule, func() {
		removed := registry.Sweep(cfg.SweepMaxAge)
		if removed > 0 {
			logger.Info().Int("removed", removed).Msg("swept stale translation records")
		}
	})
	if err != nil {
		logger.Error().Err(err).Str("schedule", cfg.SweepSchedule).Msg("invalid sweep schedule")
		fmt.Fprintf(os.Stderr, "Invalid SWEEP_SCHEDULE: %v\n", err)
		return 1
	}
	scheduler.Start()
	defer scheduler.Stop()

	listenAddr := cfg.ListenAddr
	if *addr != "" {
		listenAddr = *addr
	}

	srv := httpapi.NewServer(coordinator, logger, httpapi.Options{
		Addr:            listenAddr,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		Services: httpapi.ServiceAvailability{
			Translator: cfg.TranslatorEndpoint != "" && cfg.TranslatorKey != "",
			Storage:    true,
			Delivery:   deliverer.Configured(),
		},
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("addr", listenAddr).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
