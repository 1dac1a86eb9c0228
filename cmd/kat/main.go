// Command kat loads a golden vector file into a record array, executes it
// on one or more backends and verifies every computed vector.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/23skdu/longbow-kat/internal/bijection"
	"github.com/23skdu/longbow-kat/internal/config"
	"github.com/23skdu/longbow-kat/internal/device"
	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/logger"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

const progname = "kat"

// Report is the JSON run report.
type Report struct {
	RunID     string      `json:"run_id"`
	Input     string      `json:"input"`
	Device    string      `json:"device"`
	Backends  []string    `json:"backends"`
	HasAES    bool        `json:"has_aes"`
	Diverged  []string    `json:"diverged,omitempty"`
	Summary   kat.Summary `json:"summary"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(progname, flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", "", "dotenv file applied before reading the environment")
	backend := fs.String("backend", "", "execution backend: host, grid, jit or all (default $KAT_BACKEND or host)")
	workGroup := fs.Int("workgroup", 0, "device default work-group size (default $KAT_WORKGROUP or 256)")
	logFormat := fs.String("log-format", "", "log format: console or json")
	reportFile := fs.String("report", "", "write a JSON run report to this file")
	metricsFile := fs.String("metrics", "", "write Prometheus metrics to this textfile")
	regenFile := fs.String("regen", "", "write the computed vectors to this file in golden-file format")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return 1
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *workGroup != 0 {
		cfg.WorkGroupSize = *workGroup
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if *reportFile != "" {
		cfg.ReportFile = *reportFile
	}
	if *metricsFile != "" {
		cfg.MetricsFile = *metricsFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return 1
	}

	logger.SetupWriter(stderr, logger.LevelFor(cfg.Verbose, cfg.Debug), cfg.LogFormat)
	runID := uuid.NewString()
	logger.WithRun(runID)

	code, err := execute(context.Background(), cfg, fs.Args(), *regenFile, runID, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return katerr.ClassOf(err).ExitCode()
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Log.Warn("failed to write metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}
	return code
}

func execute(ctx context.Context, cfg *config.Config, args []string, regen, runID string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	start := time.Now()
	cfg.ResolveInput(args)
	in, err := cfg.OpenInput(stdin)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	hasAES := bijection.DetectFeatures().HasAES && !cfg.DisableAES
	suite, err := kat.Load(in, kat.NewParser(hasAES))
	if err != nil {
		return 0, err
	}
	suite.Unknown.Report(stdout)
	n := len(suite.Records)
	fmt.Fprintf(stdout, "Perform %d tests.\n", n)

	info := device.Probe()
	logger.Log.Info("executing known answer tests",
		"input", cfg.InputPath,
		"records", n,
		"backends", cfg.Backends(),
		"device", info.String(),
		"aes", hasAES)

	var primary []kat.Record
	var diverged []string
	for _, name := range cfg.Backends() {
		b, err := device.New(name, cfg.WorkGroupSize)
		if err != nil {
			return 0, err
		}
		records := append([]kat.Record(nil), suite.Records...)
		t0 := time.Now()
		if err := b.Execute(ctx, records); err != nil {
			return 0, fmt.Errorf("%s backend: %w", name, err)
		}
		logger.Log.Debug("backend finished", "backend", name, "elapsed", time.Since(t0))
		if primary == nil {
			primary = records
			continue
		}
		if i := device.Compare(primary, records); i >= 0 {
			logger.Log.Error("backend diverges from reference", "backend", name, "record", i)
			diverged = append(diverged, name)
		}
	}

	failed := kat.Verify(primary, stderr)
	summary := kat.Summary{Tests: n, Failed: failed + len(diverged)}
	if names := suite.Unknown.Names(); len(names) > 0 {
		summary.Skipped = make(map[string]int, len(names))
		for _, name := range names {
			summary.Skipped[name] = suite.Unknown.Count(name)
		}
	}
	summary.Write(stdout)

	if regen != "" {
		if err := writeVectors(regen, primary); err != nil {
			return 0, err
		}
		logger.Log.Info("regenerated vectors", "path", regen, "records", len(primary))
	}

	if cfg.ReportFile != "" {
		rep := Report{
			RunID:     runID,
			Input:     cfg.InputPath,
			Device:    info.String(),
			Backends:  cfg.Backends(),
			HasAES:    hasAES,
			Diverged:  diverged,
			Summary:   summary,
			ElapsedMS: time.Since(start).Milliseconds(),
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return 0, katerr.Wrap(katerr.Internal, 0, "encode run report", err)
		}
		if err := os.WriteFile(cfg.ReportFile, data, 0o644); err != nil {
			return 0, katerr.Wrap(katerr.Resource, 0, "write run report", err)
		}
	}

	if !summary.Passed() {
		return 1, nil
	}
	return 0, nil
}

func writeVectors(path string, records []kat.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return katerr.Wrap(katerr.Resource, 0, "create "+path, err)
	}
	w := bufio.NewWriter(f)
	if err := kat.WriteVectors(w, records); err != nil {
		f.Close()
		return katerr.Wrap(katerr.Resource, 0, "write "+path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return katerr.Wrap(katerr.Resource, 0, "write "+path, err)
	}
	if err := f.Close(); err != nil {
		return katerr.Wrap(katerr.Resource, 0, "close "+path, err)
	}
	return nil
}
