package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sitegrader/sitegrader/internal/artifacts"
	apiserver "github.com/sitegrader/sitegrader/internal/api_server"
	"github.com/sitegrader/sitegrader/internal/config"
	"github.com/sitegrader/sitegrader/internal/pipeline"
	"github.com/sitegrader/sitegrader/internal/service"
	"github.com/sitegrader/sitegrader/internal/stages"
	"github.com/sitegrader/sitegrader/internal/store"
	"github.com/sitegrader/sitegrader/pkg/log"
	"github.com/sitegrader/sitegrader/pkg/migrations"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sitegrader api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		dataStore := store.NewStore(db)
		defer dataStore.Close()

		if cfg.Service.MigrationFolder != "" {
			if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
				zap.S().Fatalw("running initial migration", "error", err)
			}
		}

		quota := pipeline.NewQuotaGuard(cfg.Quota.DailyBudgetDollars, cfg.Quota.RequestsPerSecond, cfg.Quota.Burst)
		quota.StartReset(cfg.Quota.ResetInterval)
		defer quota.Close()

		specs := pipeline.DefaultSpecs()
		adapters := stages.NewAdapters(stagesConfig(cfg), stages.NewStubClient(), specs)
		orch, err := pipeline.NewOrchestrator(specs, adapters, pipeline.NewRunner(quota))
		if err != nil {
			zap.S().Fatalw("building pipeline", "error", err)
		}

		assessmentSrv := service.NewAssessmentService(dataStore, orch, newUploader(cfg))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, dataStore, listener, assessmentSrv)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

// stagesConfig maps configured analyzer endpoints; a stage without a URL runs
// against the in-process stub.
func stagesConfig(cfg *config.Config) stages.Config {
	endpoint := func(url, key string, kind pipeline.StageKind) stages.Endpoint {
		if url == "" {
			return stages.StubEndpoint(kind)
		}
		return stages.Endpoint{URL: url, APIKey: key}
	}

	return stages.Config{
		PageSpeed:       endpoint(cfg.Stages.PageSpeedURL, cfg.Stages.PageSpeedAPIKey, pipeline.StagePageSpeed),
		Security:        endpoint(cfg.Stages.SecurityURL, cfg.Stages.SecurityAPIKey, pipeline.StageSecurity),
		BusinessProfile: endpoint(cfg.Stages.BusinessProfileURL, cfg.Stages.BusinessProfileAPIKey, pipeline.StageBusinessProfile),
		Screenshot:      endpoint(cfg.Stages.ScreenshotURL, cfg.Stages.ScreenshotAPIKey, pipeline.StageScreenshot),
		DomainAuthority: endpoint(cfg.Stages.DomainAuthorityURL, cfg.Stages.DomainAuthorityAPIKey, pipeline.StageDomainAuthority),
		VisualCritique:  endpoint(cfg.Stages.VisualCritiqueURL, cfg.Stages.VisualCritiqueAPIKey, pipeline.StageVisualCritique),
	}
}

func newUploader(cfg *config.Config) artifacts.Uploader {
	if cfg.Artifacts.Endpoint == "" {
		return nil
	}

	uploader, err := artifacts.NewMinioUploader(
		artifacts.WithEndpoint(cfg.Artifacts.Endpoint),
		artifacts.WithBucket(cfg.Artifacts.Bucket),
		artifacts.WithAccessKey(cfg.Artifacts.AccessKey),
		artifacts.WithSecretKey(cfg.Artifacts.SecretKey),
		artifacts.WithSSL(cfg.Artifacts.UseSSL),
	)
	if err != nil {
		zap.S().Errorw("failed to create minio uploader", "error", err)
		return nil
	}
	return uploader
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
