package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/23skdu/longbow-kat/internal/katerr"
)

// DefaultVectorFile is the golden file name looked up under $srcdir.
const DefaultVectorFile = "kat_vectors"

const DefaultWorkGroupSize = 256

type Config struct {
	InputPath string
	SrcDir    string

	Verbose      int
	Debug        int
	AdapterDebug int

	Backend       string
	WorkGroupSize int
	DisableAES    bool

	LogFormat   string
	MetricsFile string
	ReportFile  string
}

var validBackends = map[string]bool{"host": true, "grid": true, "jit": true, "all": true}

// Load reads the environment, after applying envFile (if non-empty) with
// godotenv. Variables already set in the process environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	c := &Config{
		SrcDir:        os.Getenv("srcdir"),
		Verbose:       1,
		Backend:       "host",
		WorkGroupSize: DefaultWorkGroupSize,
		LogFormat:     "console",
	}

	var err error
	if c.Verbose, err = envInt("KATC_VERBOSE", c.Verbose); err != nil {
		return nil, err
	}
	if c.Debug, err = envInt("KATC_DEBUG", 0); err != nil {
		return nil, err
	}
	if c.AdapterDebug, err = envInt("KATPP_DEBUG", 0); err != nil {
		return nil, err
	}
	if c.WorkGroupSize, err = envInt("KAT_WORKGROUP", c.WorkGroupSize); err != nil {
		return nil, err
	}
	if v := os.Getenv("KAT_BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("KAT_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("KAT_DISABLE_AES"); v != "" {
		if c.DisableAES, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid KAT_DISABLE_AES: %q", v)
		}
	}
	c.MetricsFile = os.Getenv("KAT_METRICS_FILE")
	c.ReportFile = os.Getenv("KAT_REPORT_FILE")
	return c, nil
}

// envInt parses an integer variable the way atoi-style knobs are read:
// surrounding spaces are ignored and an empty value keeps the default.
func envInt(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}

// ResolveInput picks the golden file: an explicit argument, else
// $srcdir/kat_vectors, else ./kat_vectors. "-" means standard input.
func (c *Config) ResolveInput(args []string) string {
	if len(args) > 0 && args[0] != "" {
		c.InputPath = args[0]
		return c.InputPath
	}
	dir := c.SrcDir
	if dir == "" {
		dir = "."
	}
	c.InputPath = filepath.Join(dir, DefaultVectorFile)
	return c.InputPath
}

// ReadsStdin reports whether the input path selects standard input.
func (c *Config) ReadsStdin() bool {
	return c.InputPath == "-"
}

// OpenInput opens the resolved input path, or wraps stdin for "-".
func (c *Config) OpenInput(stdin io.Reader) (io.ReadCloser, error) {
	if c.ReadsStdin() {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(c.InputPath)
	if err != nil {
		return nil, katerr.Wrap(katerr.Resource, 0, "error opening input file "+c.InputPath+" for reading", err)
	}
	return f, nil
}

func (c *Config) Validate() error {
	if !validBackends[c.Backend] {
		return fmt.Errorf("invalid backend: %q (must be host, grid, jit or all)", c.Backend)
	}
	if c.WorkGroupSize <= 0 {
		return fmt.Errorf("invalid work group size: %d (must be positive)", c.WorkGroupSize)
	}
	if c.Verbose < 0 {
		return fmt.Errorf("invalid verbose: %d (must be non-negative)", c.Verbose)
	}
	if c.AdapterDebug < 0 {
		return fmt.Errorf("invalid adapter debug: %d (must be non-negative)", c.AdapterDebug)
	}
	if c.Debug < 0 {
		return fmt.Errorf("invalid debug: %d (must be non-negative)", c.Debug)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q (must be console or json)", c.LogFormat)
	}
	return nil
}

// Backends expands the configured backend selection.
func (c *Config) Backends() []string {
	if c.Backend == "all" {
		return []string{"host", "grid", "jit"}
	}
	return []string{c.Backend}
}
