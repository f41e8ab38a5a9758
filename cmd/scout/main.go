package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/scout/internal/adapter"
	"github.com/everstacklabs/scout/internal/adapter/providers/openrouter"
	"github.com/everstacklabs/scout/internal/cache"
	"github.com/everstacklabs/scout/internal/catalog"
	"github.com/everstacklabs/scout/internal/config"
	"github.com/everstacklabs/scout/internal/consider"
	"github.com/everstacklabs/scout/internal/diff"
	"github.com/everstacklabs/scout/internal/httpclient"
	"github.com/everstacklabs/scout/internal/mcpserver"
	"github.com/everstacklabs/scout/internal/metrics"
	"github.com/everstacklabs/scout/internal/validate"
)

var (
	cfgFile string
	version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "scout",
		Short:        "Model catalog consultant",
		Long:         "Answers model selection questions against a live aggregator catalog, over MCP or the command line.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		serveCmd(),
		getCmd(),
		considerCmd(),
		validateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve get_model and consider_models over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if app.cfg.MetricsAddr != "" {
				go func() {
					if err := app.metrics.Serve(ctx, app.cfg.MetricsAddr); err != nil {
						slog.Error("metrics server failed", "addr", app.cfg.MetricsAddr, "error", err)
					}
				}()
			}

			slog.Info("serving MCP on stdio", "source", app.cfg.Source, "version", version)
			return mcpserver.New(app.engine, version).Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <model-id>",
		Short: "Show one model's normalized record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}

			refresh, _ := cmd.Flags().GetBool("refresh")
			rec, err := app.engine.GetModel(cmd.Context(), args[0], refresh)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return writeOutput(os.Stdout, format, rec)
		},
	}

	cmd.Flags().Bool("refresh", false, "Force a fresh catalog fetch")
	cmd.Flags().StringP("output", "o", formatJSON, "Output format: json or yaml")

	return cmd
}

func considerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consider [request text]",
		Short: "Filter, rank, cost out and compare models",
		Example: `  scout consider cheap long context model with tools
  scout consider --model openai/gpt-4o --model anthropic/claude-3.5-sonnet --prompt-tokens 1000000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd, strings.Join(args, " "))
			if err != nil {
				return err
			}

			app, err := setup()
			if err != nil {
				return err
			}

			resp, err := app.engine.Consider(cmd.Context(), req)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return writeOutput(os.Stdout, format, resp)
		},
	}

	f := cmd.Flags()
	f.StringSlice("provider", nil, "Only models from these providers")
	f.Bool("free", false, "Only free models")
	f.Int("min-context", 0, "Minimum context length")
	f.Int("max-context", 0, "Maximum context length")
	f.Float64("max-price", 0, "Maximum prompt+completion USD per million tokens")
	f.Bool("vision", false, "Require (or with =false, exclude) image input")
	f.Bool("tools", false, "Require (or with =false, exclude) tool calling")
	f.Bool("reasoning", false, "Require (or with =false, exclude) reasoning")
	f.String("modality", "", "Exact modality tag, e.g. text->text")
	f.StringArray("model", nil, "Restrict to this model id (repeatable)")
	f.String("sort", "", "Sort by price, context, created or name")
	f.Int("max-results", 0, "Maximum number of models returned (default from config)")
	f.Int64("prompt-tokens", 0, "Workload prompt tokens")
	f.Int64("completion-tokens", 0, "Workload completion tokens")
	f.Int64("requests-per-day", 0, "Workload requests per day")
	f.Int64("requests-per-month", 0, "Workload requests per month")
	f.Int64("images", 0, "Workload images")
	f.Bool("refresh", false, "Force a fresh catalog fetch")
	f.StringP("output", "o", formatJSON, "Output format: json or yaml")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Fetch the catalog and report suspicious records",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}

			res, err := app.cache.Obtain(cmd.Context(), true)
			if err != nil {
				return err
			}

			result := validate.ValidateCatalog(catalog.NormalizeAll(res.Records))
			fmt.Println(validate.FormatResult(result))

			if result.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}
}

type app struct {
	cfg     *config.Config
	cache   *cache.Cache
	engine  *consider.Engine
	metrics *metrics.Recorder
}

func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	src, err := configureSource(cfg)
	if err != nil {
		return nil, err
	}

	rec := metrics.New()
	c := cache.New(src, cfg.APIKey,
		cache.WithTTL(cfg.CacheTTL),
		cache.WithObserver(rec),
		cache.WithRefreshHook(logRefresh(src.Name())),
	)
	engine := consider.New(c,
		consider.WithMaxResults(cfg.MaxResults),
		consider.WithObserver(rec),
	)

	return &app{cfg: cfg, cache: c, engine: engine, metrics: rec}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the default logger on stderr; stdout carries MCP
// traffic and command output.
func setupLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func configureSource(cfg *config.Config) (adapter.Source, error) {
	src, err := adapter.Get(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(adapter.List(), ", "))
	}

	client := httpclient.New(
		httpclient.WithRateLimit(cfg.RateLimit),
		httpclient.WithTimeout(cfg.HTTPTimeout),
		httpclient.WithUserAgent("scout/"+version),
	)

	if o, ok := src.(*openrouter.OpenRouter); ok {
		o.Configure(cfg.BaseURL, client)
	}
	return src, nil
}

// logRefresh reports what changed between consecutive snapshots and how
// many records look suspicious.
func logRefresh(source string) func(prev, next *cache.Snapshot) {
	return func(prev, next *cache.Snapshot) {
		records := catalog.NormalizeAll(next.Records)

		if prev != nil {
			cs := diff.Compute(source, catalog.NormalizeAll(prev.Records), records, diff.DiffOptions{})
			if cs.HasChanges() {
				slog.Info("catalog changed", "summary", cs.Summary())
			}
		}

		result := validate.ValidateCatalog(records)
		if len(result.Issues) > 0 {
			slog.Warn("catalog validation issues", "source", source,
				"errors", len(result.Errors()), "warnings", len(result.Warnings()))
		}
	}
}
