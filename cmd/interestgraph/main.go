package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/interestgraph/internal/observability"
	"github.com/hrygo/interestgraph/internal/profile"
	"github.com/hrygo/interestgraph/store"
)

const defaultEnvFile = ".env"

var (
	rootCmd = &cobra.Command{
		Use:          "interestgraph",
		Short:        `Turns a YouTube watch-history export into a graph of how interests persist and branch over time.`,
		SilenceUsage: true,
	}

	normalizeCmd = &cobra.Command{
		Use:   "normalize",
		Short: "Extract video ids, titles and timestamps from watch-history.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.normalize(cmd.Context())
		},
	}

	enrichCmd = &cobra.Command{
		Use:   "enrich",
		Short: "Fetch video and channel metadata from the YouTube Data API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.enrich(cmd.Context())
		},
	}

	classifyCmd = &cobra.Command{
		Use:   "classify",
		Short: "Label every channel with a short topic using the chat model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.classify(cmd.Context())
		},
	}

	graphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Build graph_data.json from the labeled history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.graph(cmd.Context())
		},
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run normalize, enrich, classify and graph in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			for _, stage := range []func(context.Context) error{app.normalize, app.enrich, app.classify, app.graph} {
				if err := stage(cmd.Context()); err != nil {
					return err
				}
			}
			return nil
		},
	}
)

// flagKeys maps command-line flags to profile keys.
var flagKeys = map[string]string{
	"data":        profile.KeyData,
	"log-level":   profile.KeyLogLevel,
	"log-format":  profile.KeyLogFormat,
	"granularity": profile.KeyGranularity,
	"min-views":   profile.KeyMinViews,
	"rules":       profile.KeyRulesFile,
	"cache":       profile.KeyCacheDriver,
}

func init() {
	profile.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().String("config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("env", defaultEnvFile, "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("data", "data", "data directory holding every artifact")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	for _, cmd := range []*cobra.Command{normalizeCmd, runCmd} {
		cmd.Flags().String("input", "", "watch-history.json export (default <data>/watch-history.json)")
	}
	for _, cmd := range []*cobra.Command{graphCmd, runCmd} {
		cmd.Flags().String("granularity", "month", "time bucket: month or week")
		cmd.Flags().Int("min-views", 3, "minimum videos for a node to be kept")
		cmd.Flags().String("rules", "", "YAML file overriding forbidden topics and conflict keywords")
		cmd.Flags().String("cache", "json", "cache driver: json or sqlite")
	}

	rootCmd.AddCommand(normalizeCmd, enrichCmd, classifyCmd, graphCmd, runCmd)
}

// app carries the resolved configuration of one invocation.
type app struct {
	profile *profile.Profile
	store   *store.Store
	logger  *slog.Logger
	runID   string
	input   string
}

func newApp(cmd *cobra.Command) (*app, error) {
	if err := loadEnvFile(cmd); err != nil {
		return nil, err
	}

	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := viper.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	p := profile.Load(viper.GetViper())
	logger, err := observability.NewLogger(p.LogLevel, p.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	input, _ := cmd.Flags().GetString("input")
	return &app{
		profile: p,
		store:   store.New(p.Data),
		logger:  logger,
		runID:   uuid.New().String(),
		input:   input,
	}, nil
}

// loadEnvFile loads the dotenv file without overriding variables already set.
// A missing default file is not an error.
func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env")
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !cmd.Flags().Changed("env") && os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("interestgraph failed", "error", err)
		os.Exit(1)
	}
}
