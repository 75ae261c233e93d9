package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/limonhassan606/SocialAutoPoster/internal/config"
	"github.com/limonhassan606/SocialAutoPoster/internal/models"
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
		Use:   "autoposter",
		Short: "Deferred multi-channel social publishing scheduler",
		Long: `Schedules social media posts for future delivery, fans them out to the
configured platforms when due, and rolls recurring posts forward.`,
		PersistentPreRunE: initializeApp,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(upcomingCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(platformsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
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

	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

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

// ============ SCHEDULE ============

func scheduleCmd() *cobra.Command {
	var (
		platforms     []string
		content       string
		mediaURL      string
		mediaType     string
		publishAt     string
		timezone      string
		recurring     string
		recurringTime string
		until         string
		priority      int
		metadata      []string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a post for future publishing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc := scheduler.NewService(repo, log)

			publishTime, err := parseDateTime(publishAt, timezone)
			if err != nil {
				return fmt.Errorf("invalid --publish-at: %w", err)
			}

			builder := svc.NewPost().
				Platforms(platforms...).
				Content(content).
				PublishAt(publishTime)

			if timezone != "" {
				builder.Timezone(timezone)
			}
			if mediaURL != "" {
				builder.Media(mediaURL, models.MediaType(mediaType))
			}
			if cmd.Flags().Changed("priority") {
				builder.Priority(priority)
			}
			if recurring != "" {
				builder.Recurring(models.Cadence(recurring), recurringTime)
			}
			if until != "" {
				untilTime, err := parseDateTime(until, timezone)
				if err != nil {
					return fmt.Errorf("invalid --until: %w", err)
				}
				builder.Until(untilTime)
			}
			if len(metadata) > 0 {
				builder.Metadata(parseMetadata(metadata))
			}

			receipt, err := builder.Save(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Scheduled post #%d\n", receipt.ID)
			fmt.Printf("  Publish at: %s\n", receipt.PublishAt.Format(time.RFC3339))
			fmt.Printf("  Platforms:  %s\n", strings.Join(receipt.Platforms, ", "))
			fmt.Printf("  Recurring:  %t\n", receipt.Recurring)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "target platforms (comma separated)")
	cmd.Flags().StringVar(&content, "content", "", "post content")
	cmd.Flags().StringVar(&mediaURL, "media-url", "", "media URL to attach")
	cmd.Flags().StringVar(&mediaType, "media-type", "image", "media type: image, video or document")
	cmd.Flags().StringVar(&publishAt, "publish-at", "", "publish instant (RFC3339 or \"2006-01-02 15:04\")")
	cmd.Flags().StringVar(&timezone, "timezone", "", "originating timezone (default UTC)")
	cmd.Flags().StringVar(&recurring, "recurring", "", "recurrence cadence: daily, weekly or monthly")
	cmd.Flags().StringVar(&recurringTime, "recurring-time", "09:00", "recurrence time of day (HH:MM, local)")
	cmd.Flags().StringVar(&until, "until", "", "recurrence cutoff instant")
	cmd.Flags().IntVar(&priority, "priority", 0, "dispatch priority 1-10 (default 5)")
	cmd.Flags().StringSliceVar(&metadata, "metadata", nil, "metadata entries as key=value")
	cmd.MarkFlagRequired("platforms")
	cmd.MarkFlagRequired("content")
	cmd.MarkFlagRequired("publish-at")

	return cmd
}

// ============ UPCOMING ============

func upcomingCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List upcoming pending posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := scheduler.NewService(repo, log)
			posts, err := svc.Upcoming(context.Background(), limit)
			if err != nil {
				return err
			}

			if len(posts) == 0 {
				fmt.Println("No upcoming posts.")
				return nil
			}

			fmt.Printf("%-6s %-22s %-4s %-24s %s\n", "ID", "PUBLISH AT", "PRI", "PLATFORMS", "CONTENT")
			for _, p := range posts {
				fmt.Printf("%-6d %-22s %-4d %-24s %s\n",
					p.ID,
					p.PublishAt.Format("2006-01-02 15:04 MST"),
					p.Priority,
					strings.Join(p.Platforms, ","),
					truncate(p.Content, 40),
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum posts to list")
	return cmd
}

// ============ PROCESS ============

func processCmd() *cobra.Command {
	var (
		dryRun bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process due posts (or preview them with --dry-run)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc := scheduler.NewService(repo, log)

			if dryRun {
				posts, err := svc.Upcoming(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Println("DRY RUN - upcoming posts:")
				for _, p := range posts {
					fmt.Printf("  #%d %s %q\n", p.ID, p.PublishAt.Format("2006-01-02 15:04"), truncate(p.Content, 30))
				}
				return nil
			}

			processor := scheduler.NewProcessor(repo, buildDispatcher(ctx), log)
			result, err := processor.ProcessDue(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Processed:  %d\n", result.Processed)
			fmt.Printf("Successful: %d\n", result.Successful)
			fmt.Printf("Failed:     %d\n", result.Failed)
			for _, e := range result.Errors {
				fmt.Printf("  Post #%d: %s\n", e.PostID, e.Error)
			}

			if result.Failed > 0 {
				return fmt.Errorf("%d post(s) failed", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list upcoming posts without publishing")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum posts to list in dry-run mode")
	return cmd
}

// ============ CANCEL ============

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <post-id>",
		Short: "Cancel a pending post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			svc := scheduler.NewService(repo, log)
			if err := svc.Cancel(context.Background(), uint(id)); err != nil {
				return err
			}
			fmt.Printf("Cancelled post #%d\n", id)
			return nil
		},
	}
}

// ============ PLATFORMS ============

func platformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List configured platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDispatcher(context.Background())
			registered := d.Platforms()
			if len(registered) == 0 {
				fmt.Println("No platforms configured. Set platform credentials in config or environment.")
				return nil
			}
			for _, name := range registered {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}

// ============ HELPERS ============

func parseDateTime(value, timezone string) (time.Time, error) {
	loc := time.UTC
	if timezone != "" {
		parsed, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
		loc = parsed
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or \"2006-01-02 15:04\", got %q", value)
	}
	return t, nil
}

func parseMetadata(entries []string) map[string]interface{} {
	metadata := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if found {
			metadata[key] = value
		}
	}
	return metadata
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
