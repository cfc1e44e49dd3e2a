// Command crucible runs evaluation suites against HTTP tasks, scores the
// outputs, and reports or persists the results.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/crucible-dev/crucible/infrastructure/middleware"
	"github.com/crucible-dev/crucible/infrastructure/store"
	"github.com/crucible-dev/crucible/internal/application"
	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/report"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type runFlags struct {
	configPath  string
	concurrency int
	filter      string
	dbPath      string
	jsonOut     string
	htmlOut     string
	metricsAddr string
	watch       bool
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "crucible",
		Short:         "Evaluation harness for HTTP tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

func newRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an evaluation run from a YAML config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "crucible.yaml", "run config file")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "override config concurrency")
	cmd.Flags().StringVar(&flags.filter, "filter", "", "only run cases whose ID contains this string")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "persist results to this SQLite database")
	cmd.Flags().StringVar(&flags.jsonOut, "json", "", "write the full result as JSON to this file")
	cmd.Flags().StringVar(&flags.htmlOut, "html", "", "write an HTML report to this file")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rerun when the config or dataset changes")

	viper.SetEnvPrefix("CRUCIBLE")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("db", cmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("metrics-addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func runMain(ctx context.Context, flags *runFlags) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dbPath := viper.GetString("db"); dbPath != "" {
		flags.dbPath = dbPath
	}
	if addr := viper.GetString("metrics-addr"); addr != "" {
		flags.metricsAddr = addr
	}

	var metrics *middleware.PrometheusMetrics
	if flags.metricsAddr != "" {
		metrics = middleware.NewPrometheusMetrics()
		go serveMetrics(flags.metricsAddr, logger)
	}

	if !flags.watch {
		_, err := runOnce(ctx, flags, metrics, logger)
		return err
	}
	return watchLoop(ctx, flags, metrics, logger)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

// runOnce loads the config, executes the evaluation, and emits reports.
// Config is reloaded on every invocation so watch mode picks up edits.
func runOnce(ctx context.Context, flags *runFlags, metrics *middleware.PrometheusMetrics, logger *zap.Logger) (domain.EvalResult, error) {
	cfg, err := LoadRunConfig(flags.configPath)
	if err != nil {
		return domain.EvalResult{}, err
	}
	if flags.concurrency > 0 {
		cfg.Concurrency = flags.concurrency
	}

	source := buildSource(cfg, flags.filter)
	task, err := buildTask(cfg)
	if err != nil {
		return domain.EvalResult{}, err
	}
	scorers, err := buildScorers(cfg, os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		return domain.EvalResult{}, err
	}

	eval, err := application.NewEvaluation(source, task, scorers, application.EvalConfig{
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return domain.EvalResult{}, err
	}
	if metrics != nil {
		eval = eval.WithMetrics(metrics)
	}

	logger.Info("starting evaluation",
		zap.String("name", cfg.Name),
		zap.String("data", cfg.Data.Path),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Int("scorers", len(scorers)))

	start := time.Now()
	result, err := eval.Run(ctx)
	if err != nil {
		return domain.EvalResult{}, err
	}

	logger.Info("evaluation finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("total", result.Summary.Total),
		zap.Int("passed", result.Summary.Passed),
		zap.Float64("pass_rate", result.Summary.PassRate),
		zap.Float64("avg_score", result.Summary.AvgScore))

	fmt.Println(report.SummaryTable(result))

	if err := emitReports(flags, result); err != nil {
		return domain.EvalResult{}, err
	}
	if flags.dbPath != "" {
		if err := persistResult(ctx, flags.dbPath, cfg, result); err != nil {
			return domain.EvalResult{}, err
		}
		logger.Info("results persisted", zap.String("db", flags.dbPath))
	}
	return result, nil
}

func emitReports(flags *runFlags, result domain.EvalResult) error {
	if flags.jsonOut != "" {
		data, err := report.JSON(result)
		if err != nil {
			return fmt.Errorf("rendering JSON report: %w", err)
		}
		if err := os.WriteFile(flags.jsonOut, data, 0o644); err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
	}
	if flags.htmlOut != "" {
		data, err := report.HTML(result)
		if err != nil {
			return fmt.Errorf("rendering HTML report: %w", err)
		}
		if err := os.WriteFile(flags.htmlOut, data, 0o644); err != nil {
			return fmt.Errorf("writing HTML report: %w", err)
		}
	}
	return nil
}

func persistResult(ctx context.Context, dbPath string, cfg *RunConfig, result domain.EvalResult) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	runID, err := db.CreateRun(ctx, map[string]any{
		"task_url": cfg.Task.URL,
		"data":     cfg.Data.Path,
	})
	if err != nil {
		return err
	}
	return db.SaveResult(ctx, runID, cfg.Name, result)
}

// watchLoop reruns the evaluation whenever the config or dataset changes.
// Events are debounced since editors emit several writes per save.
func watchLoop(ctx context.Context, flags *runFlags, metrics *middleware.PrometheusMetrics, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch parent directories so atomic-rename saves are still observed.
	watched := map[string]struct{}{}
	addTarget := func(path string) error {
		dir := filepath.Dir(path)
		if _, ok := watched[dir]; ok {
			return nil
		}
		watched[dir] = struct{}{}
		return watcher.Add(dir)
	}
	if err := addTarget(flags.configPath); err != nil {
		return fmt.Errorf("watching config: %w", err)
	}
	if cfg, err := LoadRunConfig(flags.configPath); err == nil {
		if err := addTarget(cfg.Data.Path); err != nil {
			return fmt.Errorf("watching dataset: %w", err)
		}
	}

	run := func() {
		if _, err := runOnce(ctx, flags, metrics, logger); err != nil {
			logger.Error("run failed", zap.Error(err))
		}
	}

	run()
	logger.Info("watching for changes", zap.String("config", flags.configPath))

	var debounce *time.Timer
	trigger := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			logger.Info("change detected, rerunning")
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
