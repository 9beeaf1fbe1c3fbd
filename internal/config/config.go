// Package config loads the sweep configuration through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/mod/semver"

	"github.com/ezeeEric/batchbuddha/internal/gin"
	"github.com/ezeeEric/batchbuddha/internal/render"
	"github.com/ezeeEric/batchbuddha/internal/scheduler"
	"github.com/ezeeEric/batchbuddha/internal/sweep"
	"github.com/ezeeEric/batchbuddha/internal/utils"
)

const VERSION = "1.0.0"

// RunCommandPlaceholder is the one placeholder runCommand may use. It is
// bound to the job's output folder, outputFolderName/jobName.
const RunCommandPlaceholder = "jobOutputDir"

var (
	// ErrInvalidConfig indicates a config value that cannot be used.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrVersionTooOld indicates the config asks for a newer batchbuddha.
	ErrVersionTooOld = errors.New("batchbuddha version too old for this config")
)

// Config holds one sweep's settings.
type Config struct {
	RunCommand               string
	LoopableConfigEntries    []string
	OutputFolderName         string
	LogOutputFolder          string
	BaseOutputDir            string
	SubmissionTemplate       string
	TestRun                  bool
	DumpSubmitCommandsToFile bool

	Project      string
	Time         string
	Cores        int
	Memory       string
	LocalScratch string

	Scheduler            scheduler.Type
	NodeSetup            string
	SubmitScriptTemplate string // path to a custom submit-script template
	Launcher             string
	DeferredSetup        string
	DeferredScriptDir    string

	GinConfig       []string
	GinBindings     []string
	RequiresVersion string

	// Parsed from Time and Memory by Validate.
	Walltime time.Duration
	MemoryMB int

	// ConfigDir resolves relative gin and template paths. Empty means cwd.
	ConfigDir string

	// Entries is the flat key space, every key with its value.
	Entries []sweep.Pair
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		RunCommand:               strings.TrimSpace(v.GetString("runCommand")),
		LoopableConfigEntries:    sweep.NormalizeNames(v.Get("loopableConfigEntries")),
		OutputFolderName:         v.GetString("outputFolderName"),
		LogOutputFolder:          v.GetString("logOutputFolder"),
		BaseOutputDir:            v.GetString("baseOutputDir"),
		SubmissionTemplate:       v.GetString("submissionTemplate"),
		TestRun:                  v.GetBool("testRun"),
		DumpSubmitCommandsToFile: v.GetBool("dumpSubmitCommandsToFile"),

		Project:      v.GetString("project"),
		Time:         v.GetString("time"),
		Cores:        v.GetInt("cores"),
		Memory:       v.GetString("memory"),
		LocalScratch: v.GetString("local_scratch"),

		NodeSetup:            v.GetString("nodeSetup"),
		SubmitScriptTemplate: v.GetString("submitScriptTemplate"),
		Launcher:             v.GetString("launcher"),
		DeferredSetup:        v.GetString("deferredSetup"),
		DeferredScriptDir:    v.GetString("deferredScriptDir"),

		GinConfig:       sweep.NormalizeNames(v.Get("ginConfig")),
		GinBindings:     bindingList(v.Get("ginBindings")),
		RequiresVersion: v.GetString("requiresVersion"),
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.ConfigDir = filepath.Dir(used)
	}

	sched, err := resolveScheduler(v.GetString("scheduler"))
	if err != nil {
		return nil, err
	}
	cfg.Scheduler = sched
	if cfg.SubmissionTemplate == "" {
		cfg.SubmissionTemplate = scheduler.DefaultSubmitCommand(sched)
	}
	if cfg.NodeSetup == "" {
		cfg.NodeSetup = scheduler.DefaultNodeSetup
	}

	// The flat key space the sweep falls back to. viper folds keys to lower
	// case, so loopable names are matched against it case-insensitively.
	keys := v.AllKeys()
	slices.Sort(keys)
	for _, k := range keys {
		cfg.Entries = append(cfg.Entries, sweep.Pair{Key: k, Value: v.Get(k)})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveScheduler(name string) (scheduler.Type, error) {
	if strings.TrimSpace(name) != "" {
		return scheduler.ParseType(name)
	}
	if t := scheduler.DetectType(); t != scheduler.Unknown {
		utils.PrintDebug("Detected scheduler %s", utils.StyleName(t.String()))
		return t, nil
	}
	utils.PrintDebug("No scheduler found on PATH, assuming SLURM")
	return scheduler.SLURM, nil
}

// Validate checks the settings and fills Walltime and MemoryMB.
func (c *Config) Validate() error {
	if c.RunCommand == "" {
		return fmt.Errorf("%w: runCommand is empty", ErrInvalidConfig)
	}
	names, err := render.Placeholders(c.RunCommand)
	if err != nil {
		return fmt.Errorf("%w: runCommand: %v", ErrInvalidConfig, err)
	}
	for _, name := range names {
		if name != RunCommandPlaceholder {
			return fmt.Errorf("%w: runCommand may only use {%s}, got {%s}",
				ErrInvalidConfig, RunCommandPlaceholder, name)
		}
	}

	names, err = render.Placeholders(c.SubmissionTemplate)
	if err != nil {
		return fmt.Errorf("%w: submissionTemplate: %v", ErrInvalidConfig, err)
	}
	if !slices.Equal(names, []string{"submitscript"}) {
		return fmt.Errorf("%w: submissionTemplate must use exactly the {submitscript} placeholder, got %q",
			ErrInvalidConfig, c.SubmissionTemplate)
	}

	if c.Walltime, err = utils.ParseDuration(c.Time); err != nil {
		return fmt.Errorf("%w: time: %v", ErrInvalidConfig, err)
	}
	if c.MemoryMB, err = utils.ParseSizeToMB(c.Memory); err != nil {
		return fmt.Errorf("%w: memory: %v", ErrInvalidConfig, err)
	}
	if c.MemoryMB <= 0 {
		return fmt.Errorf("%w: memory must be positive, got %q", ErrInvalidConfig, c.Memory)
	}
	if c.Cores <= 0 {
		return fmt.Errorf("%w: cores must be positive, got %d", ErrInvalidConfig, c.Cores)
	}
	if c.LogOutputFolder == "" {
		return fmt.Errorf("%w: logOutputFolder is empty", ErrInvalidConfig)
	}

	return CheckVersion(c.RequiresVersion, VERSION)
}

// CheckVersion fails when current is older than required. An empty required
// version always passes.
func CheckVersion(required, current string) error {
	if required == "" {
		return nil
	}
	req := canonical(required)
	if req == "" {
		return fmt.Errorf("%w: requiresVersion %q is not a semantic version", ErrInvalidConfig, required)
	}
	if semver.Compare(canonical(current), req) < 0 {
		return fmt.Errorf("%w: config requires %s, running %s", ErrVersionTooOld, required, current)
	}
	return nil
}

// semver requires a leading 'v'
func canonical(version string) string {
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.Canonical(version)
}

// Pairs returns every config key with its value, sorted by key.
func (c *Config) Pairs() []sweep.Pair {
	return c.Entries
}

// LoopableNames returns the parameter names to sweep, in config order.
func (c *Config) LoopableNames() []string {
	return c.LoopableConfigEntries
}

// LogDir is where run scripts, submit scripts and logs go.
func (c *Config) LogDir() string {
	return filepath.Join(c.BaseOutputDir, c.LogOutputFolder)
}

// resolve makes a config-relative path absolute against ConfigDir.
func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.ConfigDir == "" {
		return path
	}
	return filepath.Join(c.ConfigDir, path)
}

// GinRegistry parses the configured gin files, then the inline bindings, so
// inline bindings override file values.
func (c *Config) GinRegistry() (*gin.Registry, error) {
	reg := gin.NewRegistry()
	for _, file := range c.GinConfig {
		if err := reg.ParseFile(c.resolve(file)); err != nil {
			return nil, err
		}
	}
	for _, binding := range c.GinBindings {
		if err := reg.ParseBinding(binding); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// SubmitScriptText returns the submit-script template: the custom file when
// submitScriptTemplate is set, otherwise the scheduler's built-in one.
func (c *Config) SubmitScriptText() (string, error) {
	if c.SubmitScriptTemplate == "" {
		return scheduler.SubmitTemplate(c.Scheduler)
	}
	path := c.resolve(c.SubmitScriptTemplate)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read submit script template: %w", err)
	}
	return string(data), nil
}

// bindingList accepts a single binding or a list of them. Bindings may hold
// commas themselves ("a.b = [1, 2]"), so strings are never split.
func bindingList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
	case string:
		raw = []string{t}
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, sweep.FormatValue(item))
		}
	default:
		raw = []string{sweep.FormatValue(t)}
	}

	var out []string
	for _, b := range raw {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
