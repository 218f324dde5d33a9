// Package cli wires flowguide's commands onto cobra. Configuration comes from
// .flowguide/config.yaml, FLOWGUIDE_* environment variables and flags, in
// increasing precedence.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/logging"
	"github.com/msageha/flowguide/internal/model"
	"github.com/msageha/flowguide/internal/rules"
	"github.com/msageha/flowguide/internal/selection"
	"github.com/msageha/flowguide/internal/setup"
)

// Version is overridden at build time.
var Version = "0.1.0"

const envPrefix = "FLOWGUIDE"

// ExitError carries a non-zero exit status without an error message, for
// commands whose output already explains the failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

type app struct {
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper

	configFile string
	projectDir string
	logLevel   string

	cfg     model.Config
	baseDir string
	logger  *logging.Logger
	loader  *catalog.Loader
}

// NewRootCommand builds the command tree. out and errOut receive command
// output and logs respectively.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, v: viper.New()}

	root := &cobra.Command{
		Use:   "flowguide",
		Short: "Course-selection rule engine for flow-based curricula",
		Long: `flowguide checks a student's direction, flow intensities and course
picks against a curriculum catalog: the direction gate, per-flow
requirement progress and global compliance caps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (default is .flowguide/config.yaml)")
	flags.StringVarP(&a.projectDir, "dir", "C", "", "project directory containing .flowguide/ (default: search from the working directory)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.newInitCommand(),
		a.newGateCommand(),
		a.newStatusCommand(),
		a.newDirectionCommand(),
		a.newFlowCommand(),
		a.newCourseCommand(),
		a.newCombinationCommand(),
		a.newCatalogCommand(),
		a.newWatchCommand(),
		a.newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and returns the process exit status.
func Execute(args []string, out, errOut io.Writer) int {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(errOut, "error: %v\n", err)
	return 1
}

// load resolves the project directory and configuration. Commands that
// need neither never call it.
func (a *app) load() error {
	if a.baseDir != "" {
		return nil
	}

	base, err := a.findBaseDir()
	if err != nil {
		return err
	}

	setDefaults(a.v, model.DefaultConfig())
	a.v.SetEnvPrefix(envPrefix)
	// FLOWGUIDE_CACHE_TTL_SEC for cache.ttl_sec
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	configFile := a.configFile
	if configFile == "" {
		configFile = filepath.Join(base, setup.ConfigFile)
	}
	// Only an explicitly named config file is required to exist.
	if _, err := os.Stat(configFile); err == nil || a.configFile != "" {
		a.v.SetConfigFile(configFile)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg model.Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	a.cfg = cfg
	a.baseDir = base
	a.logger = logging.NewWriter(a.errOut, logging.ParseLogLevel(cfg.Logging.Level))
	a.loader = catalog.NewLoader(a.logger)
	return nil
}

func (a *app) findBaseDir() (string, error) {
	if a.projectDir != "" {
		base := filepath.Join(a.projectDir, setup.Dir)
		if info, err := os.Stat(base); err != nil || !info.IsDir() {
			return "", fmt.Errorf("%s not found; run 'flowguide init %s' first", base, a.projectDir)
		}
		return base, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, setup.Dir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s/ directory not found; run 'flowguide init' first", setup.Dir)
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper, d model.Config) {
	v.SetDefault("project.name", d.Project.Name)
	v.SetDefault("project.created", d.Project.Created)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("selection.path", d.Selection.Path)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl_sec", d.Cache.TTLSec)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("watch.debounce_ms", d.Watch.DebounceMs)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("logging.level", d.Logging.Level)
}

// resolve anchors a relative config path at the .flowguide directory.
func (a *app) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.baseDir, path)
}

func (a *app) catalogPath() string { return a.resolve(a.cfg.Catalog.Path) }

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	return a.loader.Load(a.catalogPath())
}

func (a *app) store() *selection.Store {
	return selection.NewStore(a.resolve(a.cfg.Selection.Path), a.logger)
}

func (a *app) engine(cat *catalog.Catalog, metrics *rules.Metrics) (*rules.Engine, error) {
	return rules.NewEngine(cat, a.cfg.Cache, a.logger, metrics)
}
