package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"authtower/config"
	"authtower/internal/analyzer"
	"authtower/internal/input/csvfile"
	inputredis "authtower/internal/input/redis"
	"authtower/internal/logger"
	"authtower/internal/output/reporthttp"
	"authtower/internal/output/reportjson"
	"authtower/internal/pipeline"
	"authtower/internal/rules"
	"authtower/internal/telemetry"
	"authtower/internal/transform/okta"
	"authtower/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("authtower.yml"); err == nil {
		return "authtower.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "authtower.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "authtower.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.AuthTower.Input.Redis.Addr == "" {
		cfg.AuthTower.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.AuthTower.Input.Redis.Key == "" {
		cfg.AuthTower.Input.Redis.Key = "auth_events"
	}
	if cfg.AuthTower.Input.Redis.BlockTimeout == 0 {
		cfg.AuthTower.Input.Redis.BlockTimeout = 5 * time.Second
	}

	if cfg.AuthTower.Pipeline.BatchSize <= 0 {
		cfg.AuthTower.Pipeline.BatchSize = 1000
	}
	if cfg.AuthTower.Pipeline.FlushInterval <= 0 {
		cfg.AuthTower.Pipeline.FlushInterval = 30 * time.Second
	}

	if cfg.AuthTower.Detect.BurstWindow <= 0 {
		cfg.AuthTower.Detect.BurstWindow = 10 * time.Minute
	}
	if cfg.AuthTower.Detect.BurstThreshold <= 0 {
		cfg.AuthTower.Detect.BurstThreshold = 3
	}
	if cfg.AuthTower.Detect.TravelWindow <= 0 {
		cfg.AuthTower.Detect.TravelWindow = time.Hour
	}
	if cfg.AuthTower.Detect.AdminRole == "" {
		cfg.AuthTower.Detect.AdminRole = "admin"
	}

	if cfg.AuthTower.Report.Mode == "" {
		cfg.AuthTower.Report.Mode = "file"
	}
	if cfg.AuthTower.Report.File.Path == "" {
		cfg.AuthTower.Report.File.Path = "output/reports.jsonl"
	}

	if cfg.AuthTower.Telemetry.Listen == "" {
		cfg.AuthTower.Telemetry.Listen = "127.0.0.1:9321"
	}

	if cfg.AuthTower.Logging.Level == "" {
		cfg.AuthTower.Logging.Level = "info"
	}
}

func detectConfig(cfg *config.Config) analyzer.Config {
	return analyzer.Config{
		BurstWindow:    cfg.AuthTower.Detect.BurstWindow,
		BurstThreshold: cfg.AuthTower.Detect.BurstThreshold,
		TravelWindow:   cfg.AuthTower.Detect.TravelWindow,
		AdminRole:      cfg.AuthTower.Detect.AdminRole,
	}
}

func loadRulesEngine(cfg *config.Config) rules.Engine {
	if !cfg.AuthTower.Rules.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.AuthTower.Rules.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; rule tagging disabled")
		return nil
	}
	engine, stats, err := rules.NewSigmaEngine(cfg.AuthTower.Rules.Path)
	if err != nil {
		logger.Errorf("Failed to load Sigma rules from %s: %v", cfg.AuthTower.Rules.Path, err)
		log.Fatalf("Failed to load Sigma rules: %v", err)
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; rule tagging is effectively disabled")
	}
	return engine
}

func runWatch(args []string) {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}

	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.AuthTower.Logging.Enabled, cfg.AuthTower.Logging.Level, cfg.AuthTower.Logging.File, cfg.AuthTower.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Infof("AuthTower starting")
	logger.Infof("Config loaded from: %s", configPath)

	consumer, err := inputredis.NewConsumer(inputredis.Config{
		Addr:         cfg.AuthTower.Input.Redis.Addr,
		Password:     cfg.AuthTower.Input.Redis.Password,
		DB:           cfg.AuthTower.Input.Redis.DB,
		Key:          cfg.AuthTower.Input.Redis.Key,
		BlockTimeout: cfg.AuthTower.Input.Redis.BlockTimeout,
	})
	if err != nil {
		logger.Errorf("Failed to create Redis consumer: %v", err)
		log.Fatalf("Failed to create Redis consumer: %v", err)
	}

	engine := loadRulesEngine(cfg)

	var writer pipeline.ReportWriter
	switch cfg.AuthTower.Report.Mode {
	case "file":
		w, err := reportjson.NewWriter(cfg.AuthTower.Report.File.Path)
		if err != nil {
			logger.Errorf("Failed to create report file writer: %v", err)
			log.Fatalf("Failed to create report file writer: %v", err)
		}
		writer = w
		logger.Infof("Report output mode: file (%s)", cfg.AuthTower.Report.File.Path)
	case "http":
		w, err := reporthttp.NewWriter(reporthttp.Config{
			URL:     cfg.AuthTower.Report.HTTP.URL,
			Timeout: cfg.AuthTower.Report.HTTP.Timeout,
			Headers: cfg.AuthTower.Report.HTTP.Headers,
		})
		if err != nil {
			logger.Errorf("Failed to create report HTTP writer: %v", err)
			log.Fatalf("Failed to create report HTTP writer: %v", err)
		}
		writer = w
		logger.Infof("Report output mode: http (%s)", cfg.AuthTower.Report.HTTP.URL)
	default:
		log.Fatalf("Unknown report output mode: %s", cfg.AuthTower.Report.Mode)
	}

	if cfg.AuthTower.Telemetry.Enabled {
		go func() {
			logger.Infof("Telemetry listening on %s", cfg.AuthTower.Telemetry.Listen)
			if err := telemetry.Serve(cfg.AuthTower.Telemetry.Listen); err != nil {
				logger.Errorf("Telemetry server error: %v", err)
			}
		}()
	}

	pipe := pipeline.NewStreamPipeline(
		consumer,
		engine,
		detectConfig(cfg),
		writer,
		cfg.AuthTower.Pipeline.BatchSize,
		cfg.AuthTower.Pipeline.FlushInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := pipe.Run(ctx); err != nil && err != context.Canceled {
			logger.Errorf("Pipeline error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()
	time.Sleep(1 * time.Second)

	if err := pipe.Close(); err != nil {
		logger.Errorf("Error closing pipeline: %v", err)
	}

	logger.Infof("AuthTower stopped")
}

func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	input := fs.String("input", "", "Authentication events CSV input path")
	output := fs.String("output", "", "Optional report JSON output path")
	configArg := fs.String("config", "", "Optional config file for thresholds and rules")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*input) == "" {
		fmt.Fprintln(os.Stderr, "analyze: -input is required")
		return 2
	}

	cfg := &config.Config{}
	if *configArg != "" {
		loaded, err := config.LoadConfig(*configArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.AuthTower.Logging.Enabled, cfg.AuthTower.Logging.Level, cfg.AuthTower.Logging.File, cfg.AuthTower.Logging.Console); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}

	columns, rows, err := csvfile.Read(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		return 1
	}

	batch, err := okta.Normalize(columns, rows)
	if err != nil {
		var schemaErr *okta.SchemaError
		if errors.As(err, &schemaErr) {
			fmt.Fprintf(os.Stderr, "Missing columns: %s\n", strings.Join(schemaErr.Missing, ", "))
			fmt.Fprintf(os.Stderr, "Expected: %s\n", strings.Join(okta.ExpectedColumns, ", "))
		} else {
			fmt.Fprintf(os.Stderr, "failed to normalize input: %v\n", err)
		}
		return 1
	}

	report := analyzer.Run(batch, loadRulesEngine(cfg), detectConfig(cfg))
	telemetry.ObserveBatch(len(rows), batch.Skipped.BadTimestamp, batch.Skipped.BadOutcome, len(report.Alerts))

	if strings.TrimSpace(*output) != "" {
		if err := writeReportJSON(*output, report); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			return 1
		}
	}

	renderReport(os.Stdout, report)
	return 0
}

func writeReportJSON(path string, report *models.Report) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// renderReport prints the human-readable summary of one analysis run.
func renderReport(w io.Writer, report *models.Report) {
	fmt.Fprintf(w, "Successful logins: %d\n", report.Metrics.SuccessfulLogins)
	fmt.Fprintf(w, "Failed logins:     %d\n", report.Metrics.FailedLogins)
	fmt.Fprintf(w, "MFA events:        %d\n", report.Metrics.MFAEvents)
	fmt.Fprintf(w, "MFA fail rate:     %.1f%%\n", report.Metrics.MFAFailRatePercent)

	if len(report.Aggregates.SuccessByCountry) > 0 {
		fmt.Fprintln(w, "\nSuccess by country:")
		for _, row := range report.Aggregates.SuccessByCountry {
			fmt.Fprintf(w, "  %-20s %d\n", row.Key, row.Count)
		}
	}
	if len(report.Aggregates.FailureBySourceAddress) > 0 {
		fmt.Fprintln(w, "\nTop failure sources:")
		for _, row := range report.Aggregates.FailureBySourceAddress {
			fmt.Fprintf(w, "  %-20s %d\n", row.Key, row.Count)
		}
	}

	fmt.Fprintln(w, "\nAlerts:")
	if len(report.Alerts) == 0 {
		fmt.Fprintln(w, "  No alerts found with simple rules.")
	} else {
		for _, alert := range report.Alerts {
			fmt.Fprintf(w, "  [!] %s\n", alert)
		}
	}

	if report.Skipped.Total() > 0 {
		fmt.Fprintf(w, "\nSkipped rows: %d (bad timestamp: %d, bad outcome: %d)\n",
			report.Skipped.Total(), report.Skipped.BadTimestamp, report.Skipped.BadOutcome)
	}
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "watch":
			runWatch(os.Args[2:])
			return
		case "analyze":
			os.Exit(runAnalyze(os.Args[2:]))
		default:
			// Backward-compatible mode: first arg is config path.
			runWatch(os.Args[1:])
			return
		}
	}

	runWatch(nil)
}
