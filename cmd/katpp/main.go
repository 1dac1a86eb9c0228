// Command katpp checks the stream generators against golden vectors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/23skdu/longbow-kat/internal/adaptercheck"
	"github.com/23skdu/longbow-kat/internal/bijection"
	"github.com/23skdu/longbow-kat/internal/config"
	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/logger"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

const progname = "katpp"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(progname, flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", "", "dotenv file applied before reading the environment")
	metricsFile := fs.String("metrics", "", "write Prometheus metrics to this textfile")
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
	if *metricsFile != "" {
		cfg.MetricsFile = *metricsFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return 1
	}
	logger.SetupWriter(stderr, logger.LevelFor(cfg.Verbose, cfg.AdapterDebug), cfg.LogFormat)
	logger.WithRun(uuid.NewString())

	cfg.ResolveInput(fs.Args())
	in, err := cfg.OpenInput(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return katerr.ClassOf(err).ExitCode()
	}
	defer in.Close()

	p := kat.NewParser(bijection.DetectFeatures().HasAES && !cfg.DisableAES)
	p.OnFirstUnknown = func(lineNo int, name, rounds string) {
		fmt.Fprintf(stderr, "%s: unknown PRNG name or rounds, input line %d: %s %s\n", progname, lineNo, name, rounds)
	}
	c := adaptercheck.New(stderr)
	st, err := kat.Scan(in, p, stderr, func(lineNo int, r *kat.Record) {
		if n := c.Check(r, lineNo); n != 0 {
			logger.Log.Debug("adapter check failed", "line", lineNo, "family", r.Family.String(), "errors", n)
		}
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return katerr.ClassOf(err).ExitCode()
	}
	c.Errors += st.FormatErrors

	p.Unknown.Report(stdout)
	c.Report(stdout)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Log.Warn("failed to write metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}
	if c.Errors > 0 {
		return 1
	}
	return 0
}
