package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manmitra-core/server/internal/agent/model"
	"github.com/manmitra-core/server/internal/audit"
	"github.com/manmitra-core/server/internal/core"
	"github.com/manmitra-core/server/internal/server"
	logx "github.com/manmitra-core/server/pkg/logger"
)

var version = "dev"

func main() {
	var envFile string

	root := &cobra.Command{
		Use:           "bestie",
		Short:         "Bestie: student mental health support chat and forum moderation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to an env file loaded before the environment")

	root.AddCommand(
		newServeCmd(&envFile),
		newAskCmd(&envFile),
		newModerateCmd(&envFile),
		newDiagnoseCmd(&envFile),
		newAlertsCmd(&envFile),
		newAuditCmd(&envFile),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads configuration, initialises logging and runs fn with a wired app.
func withApp(envFile string, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Server.Environment),
		Level:       cfg.Server.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd(envFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				listen := a.cfg.Server.Addr
				if addr != "" {
					listen = addr
				}
				return server.New(listen, a.svc, a.metrics).ListenAndServe(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	return cmd
}

func newAskCmd(envFile *string) *cobra.Command {
	var topic, userID string

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message through the chat pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				res, err := a.svc.ProcessMessage(ctx, model.ChatRequest{
					Message: strings.Join(args, " "),
					Topic:   topic,
					UserID:  userID,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "conversation topic")
	cmd.Flags().StringVar(&userID, "user", "", "user id recorded on crisis alerts")
	return cmd
}

func newModerateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "moderate <text>",
		Short: "Classify a forum post as allow or block",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				res, err := a.svc.ModeratePost(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}
}

func newDiagnoseCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Show gateway status and API key diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				return printJSON(cmd, map[string]any{
					"status":    a.svc.GetStatus(),
					"diagnosis": a.svc.DiagnoseAPIKey(),
				})
			})
		},
	}
}

func newAlertsCmd(envFile *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List queued crisis alerts from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				alerts, err := a.svc.RecentAlerts(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, alerts)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum alerts to show")
	return cmd
}

func newAuditCmd(envFile *string) *cobra.Command {
	var (
		kind  string
		limit int
		stats bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the safety audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*envFile, func(ctx context.Context, a *app) error {
				if a.auditor == nil {
					return fmt.Errorf("audit log disabled: set AUDIT_DB_PATH")
				}
				if stats {
					s, err := a.auditor.Stats(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, s)
				}
				entries, err := a.auditor.Recent(ctx, kind, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, entries)
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind ("+audit.KindCrisis+" or "+audit.KindModeration+")")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	cmd.Flags().BoolVar(&stats, "stats", false, "show daily counts instead of entries")
	return cmd
}
