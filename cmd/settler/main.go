// Package main provides the raceday settlement service entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/raceday/internal/config"
	applogger "github.com/yourusername/raceday/internal/logger"
	"github.com/yourusername/raceday/internal/metrics"
	"github.com/yourusername/raceday/internal/provider"
	"github.com/yourusername/raceday/internal/repository"
	"github.com/yourusername/raceday/internal/scheduler"
	"github.com/yourusername/raceday/internal/server"
	"github.com/yourusername/raceday/internal/service"
	"github.com/yourusername/raceday/internal/store"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cronExpr   string
	raceIDFlag string
	limitFlag  int

	cfg         *config.Config
	log         *logrus.Logger
	storeClient *store.Client
	pipeline    *service.Pipeline
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	scheduleCmd.Flags().StringVar(&cronExpr, "cron", "@every 2m", "Cron expression for settlement runs")
	runCmd.Flags().StringVar(&raceIDFlag, "race-id", "", "Settle a single race by ID")
	runCmd.Flags().IntVar(&limitFlag, "limit", 0, "Override the batch limit for this run")
}

var rootCmd = &cobra.Command{
	Use:   "settler",
	Short: "Race result ingestion and bet settlement pipeline",
	Long: `Fetches race results from the external provider under its rate limit,
propagates finishing positions across derived records, settles pending bets
and maintains the per-model accuracy ledger.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP trigger endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.NewServer(server.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        cfg.Server.Port,
			Logger:      log,
			Pipeline:    pipeline,
			Store:       storeClient,
		})
		if err := srv.Start(ctx); err != nil {
			return err
		}
		srv.SetReady(true)

		if cfg.Metrics.Enabled {
			go serveMetrics()
		}

		<-ctx.Done()
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single settlement run and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := service.RunOptions{Limit: limitFlag}
		if raceIDFlag != "" {
			id, err := parseRaceID(raceIDFlag)
			if err != nil {
				return err
			}
			opts.RaceID = &id
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, err := pipeline.Run(ctx, opts)
		if err != nil {
			return fmt.Errorf("settlement run failed: %w", err)
		}

		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched := scheduler.NewScheduler(pipeline, cfg.RunDeadline()+time.Minute, log)
		if err := sched.Schedule(cronExpr); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		if cfg.Metrics.Enabled {
			go serveMetrics()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return nil
	},
}

// setup loads configuration, overlays secrets and wires the pipeline.
// Missing credentials are fatal here, before any work is attempted.
func setup() error {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	log.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
	}).Info("Configuration loaded")

	storeClient, err = store.NewClient(store.Config{
		BaseURL:    cfg.Store.BaseURL,
		ServiceKey: cfg.Store.ServiceKey,
		Timeout:    cfg.StoreTimeout(),
		MaxRetries: cfg.Store.MaxRetries,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create store client: %w", err)
	}

	repos, err := repository.NewRepositories(storeClient)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}

	providerClient, err := provider.NewClient(provider.Config{
		URL:     cfg.Provider.URL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.ProviderTimeout(),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create provider client: %w", err)
	}

	clock := service.NewClock()
	finder, err := service.NewFinder(repos.Races, cfg.SettleDelay(), cfg.Settlement.BatchLimit, cfg.Settlement.Timezone, clock, log)
	if err != nil {
		return fmt.Errorf("failed to create finder: %w", err)
	}

	pipeline = service.NewPipeline(
		finder,
		service.NewFetcher(providerClient, log),
		service.NewPropagator(repos.Entries, repos.Selections, repos.Shortlist, clock, log),
		service.NewSettler(repos.Bets, repos.Bankrolls, clock, log),
		service.NewAggregator(repos.Performance, clock, log),
		repos.Results,
		repos.Entries,
		service.PipelineConfig{
			Interval: cfg.CallInterval(),
			Deadline: cfg.RunDeadline(),
		},
		log,
	)

	return nil
}

func parseRaceID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid race id %q: %w", s, err)
	}
	return id, nil
}

func serveMetrics() {
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	log.WithField("addr", addr).Info("Metrics server starting")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server error")
	}
}

func main() {
	rootCmd.AddCommand(serveCmd, runCmd, scheduleCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
