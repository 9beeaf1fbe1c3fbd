package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"

	"github.com/ezeeEric/batchbuddha/internal/scheduler"
	"github.com/ezeeEric/batchbuddha/internal/sweep"
)

const sampleConfig = `
runCommand: "python train.py --out {jobOutputDir} && python plot.py"
loopableConfigEntries: "lr, BatchSize,temperature"
lr: [0.1, 0.01]
batchSize: [32, 64]
scheduler: slurm
project: def-someone
time: "1-00:00:00"
memory: 8G
cores: 4
ginConfig: [train.gin]
ginBindings:
  - "temperature = [0.5, 1.0]"
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func loadConfig(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batchbuddha.yaml")
	writeFile(t, path, content)
	v := viper.New()
	if err := InitViper(v, path); err != nil {
		t.Fatalf("InitViper failed: %v", err)
	}
	return Load(v)
}

func TestLoad(t *testing.T) {
	cfg, err := loadConfig(t, sampleConfig)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff([]string{"lr", "BatchSize", "temperature"}, cfg.LoopableNames()); diff != "" {
		t.Errorf("LoopableNames mismatch (-want +got):\n%s", diff)
	}
	if cfg.Scheduler != scheduler.SLURM {
		t.Errorf("Scheduler = %v; want SLURM", cfg.Scheduler)
	}
	if cfg.SubmissionTemplate != "sbatch {submitscript}" {
		t.Errorf("SubmissionTemplate = %q", cfg.SubmissionTemplate)
	}
	if cfg.Walltime != 24*time.Hour {
		t.Errorf("Walltime = %v; want 24h", cfg.Walltime)
	}
	if cfg.MemoryMB != 8192 {
		t.Errorf("MemoryMB = %d; want 8192", cfg.MemoryMB)
	}
	if cfg.Cores != 4 {
		t.Errorf("Cores = %d; want 4", cfg.Cores)
	}

	// defaults
	if cfg.OutputFolderName != "output" || cfg.LogOutputFolder != "logs" {
		t.Errorf("folder defaults = %q, %q", cfg.OutputFolderName, cfg.LogOutputFolder)
	}
	if cfg.DeferredSetup != "module load python/3.6" {
		t.Errorf("DeferredSetup = %q", cfg.DeferredSetup)
	}
	if cfg.NodeSetup != scheduler.DefaultNodeSetup {
		t.Errorf("NodeSetup = %q", cfg.NodeSetup)
	}
	if cfg.ConfigDir == "" {
		t.Error("ConfigDir not set from the config file")
	}

	if diff := cmp.Diff([]string{"temperature = [0.5, 1.0]"}, cfg.GinBindings); diff != "" {
		t.Errorf("GinBindings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPairsFeedSweep(t *testing.T) {
	cfg, err := loadConfig(t, sampleConfig)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ps := sweep.BuildParameterSet(cfg.LoopableNames(), nil, cfg.Pairs())
	if diff := cmp.Diff([]string{"lr", "BatchSize"}, ps.Names()); diff != "" {
		t.Errorf("swept names mismatch (-want +got):\n%s", diff)
	}
	if ps.Count() != 4 {
		t.Errorf("Count() = %d; want 4", ps.Count())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BATCHBUDDHA_TESTRUN", "true")
	t.Setenv("BATCHBUDDHA_CORES", "16")

	cfg, err := loadConfig(t, sampleConfig)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.TestRun {
		t.Error("TestRun not overridden by environment")
	}
	if cfg.Cores != 16 {
		t.Errorf("Cores = %d; want 16", cfg.Cores)
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() *Config {
		return &Config{
			RunCommand:         "python train.py --out {jobOutputDir}",
			SubmissionTemplate: "sbatch {submitscript}",
			Time:               "02:00:00",
			Memory:             "4G",
			Cores:              1,
			LogOutputFolder:    "logs",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty run command", func(c *Config) { c.RunCommand = "" }, ErrInvalidConfig},
		{"unknown run placeholder", func(c *Config) { c.RunCommand = "run {seed}" }, ErrInvalidConfig},
		{"malformed run command", func(c *Config) { c.RunCommand = "run {" }, ErrInvalidConfig},
		{"no submitscript", func(c *Config) { c.SubmissionTemplate = "sbatch job.sh" }, ErrInvalidConfig},
		{"extra submit placeholder", func(c *Config) { c.SubmissionTemplate = "sbatch {submitscript} {x}" }, ErrInvalidConfig},
		{"bad time", func(c *Config) { c.Time = "soon" }, ErrInvalidConfig},
		{"bad memory", func(c *Config) { c.Memory = "lots" }, ErrInvalidConfig},
		{"zero memory", func(c *Config) { c.Memory = "0" }, ErrInvalidConfig},
		{"zero kilobytes", func(c *Config) { c.Memory = "0K" }, ErrInvalidConfig},
		{"zero cores", func(c *Config) { c.Cores = 0 }, ErrInvalidConfig},
		{"no log folder", func(c *Config) { c.LogOutputFolder = "" }, ErrInvalidConfig},
		{"future version", func(c *Config) { c.RequiresVersion = "99.0.0" }, ErrVersionTooOld},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		required, current string
		want              error
	}{
		{"", "1.0.0", nil},
		{"1.0.0", "1.0.0", nil},
		{"v0.9", "1.0.0", nil},
		{"1.2.0", "1.0.0", ErrVersionTooOld},
		{"1.0.0", "1.0.0-rc1", ErrVersionTooOld},
		{"one", "1.0.0", ErrInvalidConfig},
	}
	for _, tt := range tests {
		if err := CheckVersion(tt.required, tt.current); !errors.Is(err, tt.want) {
			t.Errorf("CheckVersion(%q, %q) = %v; want %v", tt.required, tt.current, err, tt.want)
		}
	}
}

func TestGinRegistryResolvesRelativeFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "train.gin"), "temperature = [0.1]\nlayers = [1, 2]\n")

	cfg := &Config{
		ConfigDir:   dir,
		GinConfig:   []string{"train.gin"},
		GinBindings: []string{"temperature = [0.5, 1.0]"},
	}
	reg, err := cfg.GinRegistry()
	if err != nil {
		t.Fatalf("GinRegistry failed: %v", err)
	}

	got, ok := reg.Query("temperature")
	if !ok {
		t.Fatal("temperature not bound")
	}
	if diff := cmp.Diff([]any{0.5, 1.0}, got); diff != "" {
		t.Errorf("inline binding did not override file (-want +got):\n%s", diff)
	}
	if _, ok := reg.Query("layers"); !ok {
		t.Error("layers from file not bound")
	}
}

func TestSubmitScriptText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "custom.sh"), "#!/bin/bash\n{runscript}\n")

	cfg := &Config{Scheduler: scheduler.PBS}
	builtin, err := cfg.SubmitScriptText()
	if err != nil {
		t.Fatalf("SubmitScriptText failed: %v", err)
	}
	want, _ := scheduler.SubmitTemplate(scheduler.PBS)
	if builtin != want {
		t.Error("expected the built-in PBS template")
	}

	cfg.ConfigDir = dir
	cfg.SubmitScriptTemplate = "custom.sh"
	custom, err := cfg.SubmitScriptText()
	if err != nil {
		t.Fatalf("SubmitScriptText failed: %v", err)
	}
	if custom != "#!/bin/bash\n{runscript}\n" {
		t.Errorf("custom template = %q", custom)
	}
}

func TestLogDir(t *testing.T) {
	cfg := &Config{BaseOutputDir: "/scratch/me", LogOutputFolder: "logs"}
	if got := cfg.LogDir(); got != "/scratch/me/logs" {
		t.Errorf("LogDir() = %q", got)
	}
}

func TestInitViperMissingExplicitFile(t *testing.T) {
	v := viper.New()
	if err := InitViper(v, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("InitViper accepted a missing config file")
	}
}

func TestInitViperWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	v := viper.New()
	if err := InitViper(v, ""); err != nil {
		t.Fatalf("InitViper failed: %v", err)
	}
	if got := v.GetString("logOutputFolder"); got != "logs" {
		t.Errorf("logOutputFolder default = %q; want logs", got)
	}
}

func TestValidateRoundsSmallMemoryUp(t *testing.T) {
	c := &Config{
		RunCommand:         "python train.py",
		SubmissionTemplate: "sbatch {submitscript}",
		Time:               "00:10:00",
		Memory:             "512K",
		Cores:              1,
		LogOutputFolder:    "logs",
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.MemoryMB != 1 {
		t.Errorf("MemoryMB = %d; want 1", c.MemoryMB)
	}
	if got := scheduler.SLURM.FormatMemory(c.MemoryMB); got != "1M" {
		t.Errorf("SLURM memory = %q; want 1M", got)
	}
}
