package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/limonhassan606/SocialAutoPoster/internal/config"
	"github.com/limonhassan606/SocialAutoPoster/internal/scheduler"
	"github.com/limonhassan606/SocialAutoPoster/internal/social"
	"github.com/limonhassan606/SocialAutoPoster/internal/storage"
	"github.com/limonhassan606/SocialAutoPoster/internal/storage/sqlite"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
	"github.com/limonhassan606/SocialAutoPoster/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "autoposter-scheduler",
		Short: "Background scheduler for the social auto-poster",
		Long: `Runs the due-post processor on a cron cadence. Run exactly one instance
against a given store: the processor performs no claim step, so overlapping
runs risk duplicate delivery.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting auto-poster scheduler")

	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	go startHealthServer()

	dispatcher := buildDispatcher(context.Background())
	if len(dispatcher.Platforms()) == 0 {
		log.Warn().Msg("No platforms configured; due posts will fail delivery")
	} else {
		log.Info().Strs("platforms", dispatcher.Platforms()).Msg("Platforms configured")
	}

	processor := scheduler.NewProcessor(repo, dispatcher, log)

	c := newCron(log)

	_, err = c.AddFunc(cfg.Scheduler.ProcessCron, func() {
		ctx := context.Background()
		result, err := processor.ProcessDue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Due-post processing failed")
			return
		}
		if result.Processed > 0 {
			log.Info().
				Int("processed", result.Processed).
				Int("successful", result.Successful).
				Int("failed", result.Failed).
				Msg("Scheduled processing completed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule processing job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.ProcessCron).Msg("Processing job scheduled")

	c.Start()
	log.Info().Msg("Scheduler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

	return nil
}

// buildDispatcher wires every platform whose credentials are configured
func buildDispatcher(ctx context.Context) *social.Dispatcher {
	client := social.NewRequestClient(social.RequestConfig{
		Timeout:     cfg.Request.Timeout(),
		MaxAttempts: cfg.Request.RetryAttempts,
	}, log)
	limiter := ratelimit.NewDefaultLimiter()

	d := social.NewDispatcher(log)
	if fb := cfg.Platforms.Facebook; fb.Enabled() {
		d.Register("facebook", social.NewFacebook(social.FacebookConfig{
			AccessToken: fb.AccessToken,
			PageID:      fb.PageID,
			APIVersion:  fb.APIVersion,
		}, client, limiter, log))
	}
	if tw := cfg.Platforms.Twitter; tw.Enabled() {
		d.Register("twitter", social.NewTwitter(ctx, social.TwitterConfig{
			BearerToken: tw.BearerToken,
		}, client, limiter, log))
	}
	if li := cfg.Platforms.LinkedIn; li.Enabled() {
		d.Register("linkedin", social.NewLinkedIn(ctx, social.LinkedInConfig{
			AccessToken: li.AccessToken,
			PersonURN:   li.PersonURN,
		}, client, limiter, log))
	}
	if tg := cfg.Platforms.Telegram; tg.Enabled() {
		d.Register("telegram", social.NewTelegram(social.TelegramConfig{
			BotToken: tg.BotToken,
			ChatID:   tg.ChatID,
			BaseURL:  tg.BaseURL,
		}, client, limiter, log))
	}
	return d
}

// newCron builds the processing trigger. A tick that fires while the
// previous batch is still running is skipped: ProcessDue has no claim step,
// so two concurrent batches over the same store would deliver posts twice.
func newCron(log *logger.Logger) *cron.Cron {
	clog := cronLogger{log}
	return cron.New(
		cron.WithChain(cron.SkipIfStillRunning(clog)),
		cron.WithLogger(clog),
	)
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// startHealthServer starts a simple HTTP server for liveness checks
func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
