// Command katc checks golden vectors one line at a time on the host,
// reporting malformed lines and continuing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/23skdu/longbow-kat/internal/bijection"
	"github.com/23skdu/longbow-kat/internal/config"
	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/logger"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

const progname = "katc"

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
	logger.SetupWriter(stderr, logger.LevelFor(cfg.Verbose, cfg.Debug), cfg.LogFormat)

	cfg.ResolveInput(fs.Args())
	in, err := cfg.OpenInput(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return katerr.ClassOf(err).ExitCode()
	}
	defer in.Close()

	p := kat.NewParser(bijection.DetectFeatures().HasAES && !cfg.DisableAES)
	errs, tests, defaults := 0, 0, 0
	st, err := kat.Scan(in, p, stderr, func(lineNo int, r *kat.Record) {
		tests++
		f := kat.Lookup(r.Family)
		kat.Compute(r)
		ok := f.Equal(r)
		metrics.RecordVector(f.Name, ok)
		switch {
		case !ok:
			errs++
			if cfg.Verbose > 0 {
				fmt.Fprintf(stderr, "%s: FAIL line %d: %s\n", progname, lineNo, f.FormatLine(r, &r.Computed))
				fmt.Fprintf(stderr, "%s %2d expected was: %s\n", f.Name, r.Rounds, kat.FormatWords(&r.Expected, f.Width, f.Lanes))
			}
		case cfg.Verbose > 1:
			fmt.Fprintf(stdout, "OK %s\n", f.FormatLine(r, &r.Expected))
		}
		if ok && int(r.Rounds) == f.DefaultRounds {
			defaults++
			got := f.ApplyDefault(r.Ctr.Words(f.Width, f.Lanes), r.Key.Words(f.Width, f.KeyWords))
			if want := r.Expected.Words(f.Width, f.Lanes); !slices.Equal(got, want) {
				errs++
				if cfg.Verbose > 0 {
					fmt.Fprintf(stderr, "%s: FAIL line %d: default rounds returned %x, expected %x\n", progname, lineNo, got, want)
				}
			}
		}
	})
	p.Unknown.Report(stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progname, err)
		return katerr.ClassOf(err).ExitCode()
	}
	errs += st.FormatErrors
	logger.Log.Debug("scan finished", "lines", st.Lines, "accepted", st.Accepted,
		"default_rounds", defaults, "format_errors", st.FormatErrors)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Log.Warn("failed to write metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}

	if errs != 0 {
		fmt.Fprintf(stdout, "FAILED %d errors (%d tests run)\n", errs, tests)
		return katerr.Mismatch.ExitCode()
	}
	fmt.Fprintf(stdout, "OK all %d tests passed\n", tests)
	return 0
}
