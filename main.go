package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"trends-go/internal/config"
	"trends-go/pkg/collector"
	"trends-go/pkg/logger"
	"trends-go/pkg/report"
	"trends-go/pkg/storage"
	"trends-go/pkg/trends"
)

type options struct {
	configPath string
	envFile    string
	summary    bool
	debug      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "trends-go",
		Short: "Fetch Google Trends signals into trends.json",
		Long: `trends-go collects related queries, related topics, autocomplete
suggestions and daily trending searches for a fixed keyword list across
regions, and writes them to a JSON document for the content step.

Example usage:
  trends-go                    # fetch and write trends.json
  trends-go --summary          # print a digest of the last trends.json
  TRENDS_OUTPUT_PATH=out.json trends-go`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager := config.NewManager(opts.envFile)
			if err := config.BindFlag(manager, "output_path", cmd.Flags().Lookup("output")); err != nil {
				return err
			}
			cfg, log := loadConfig(manager, opts, stderr)

			if opts.summary {
				useColor := cfg.Report.Color && !color.NoColor
				report.NewReporter(cfg.Report.Preview, useColor).Print(stdout, cfg.OutputPath)
				return nil
			}
			runFetch(cmd.Context(), cfg, log, stdout)
			return nil
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print a digest of the existing document instead of fetching")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "optional YAML config file (env: TRENDS_*)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringP("output", "o", "", "document path (default trends.json, env: TRENDS_OUTPUT_PATH)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	return cmd
}

// loadConfig never fails: a broken configuration falls back to the defaults
// so that a document is still produced.
func loadConfig(manager config.Manager, opts *options, stderr io.Writer) (*config.Config, *logger.Logger) {
	cfg, err := manager.Load(opts.configPath)
	fallback := err != nil
	if fallback {
		cfg = config.Default()
	}

	logCfg := cfg.LoggerConfig()
	if opts.debug {
		logCfg.Level = "debug"
	}
	if logCfg.Output == "" || logCfg.Output == "stderr" {
		logCfg.Writer = stderr
	}
	log := logger.New(logCfg)
	logger.SetLogger(log)

	if fallback {
		log.WithError(err).Warn("Invalid configuration, using defaults")
	}
	log.WithFields(map[string]interface{}{
		"keywords":    len(cfg.Keywords),
		"regions":     len(cfg.Regions),
		"timeframe":   cfg.Timeframe,
		"output_path": cfg.OutputPath,
	}).Debug("Configuration loaded")
	return cfg, log
}

func runFetch(ctx context.Context, cfg *config.Config, log *logger.Logger, stdout io.Writer) {
	connector := trends.NewHTTPConnector(cfg.TrendsOptions(log))
	doc, stats := collector.New(cfg.Collector(), connector, collector.WithLogger(log)).Run(ctx)

	writer := storage.NewWriter(cfg.OutputPath, log)
	if err := writer.Write(doc); err != nil {
		log.WithError(err).WithField("path", writer.Path()).Error("Failed to write trends document")
		return
	}
	fmt.Fprintln(stdout, storage.StatusLine(stats.Keywords, stats.Items))
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "trends-go: recovered from panic: %v\n", r)
		}
	}()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "trends-go: %v\n", err)
	}
}
