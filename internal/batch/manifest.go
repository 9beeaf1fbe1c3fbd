package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ezeeEric/batchbuddha/internal/utils"
)

// Manifest records one run on disk, next to its scripts.
type Manifest struct {
	RunID          string    `yaml:"runId"`
	Created        time.Time `yaml:"created"`
	DeferredScript string    `yaml:"deferredScript,omitempty"`
	Jobs           []*Job    `yaml:"jobs"`
}

// ManifestPath is {logDir}/{dateTag}_sweep.yaml.
func ManifestPath(logDir, dateTag string) string {
	return filepath.Join(logDir, dateTag+"_sweep.yaml")
}

func writeManifest(logDir string, res *Result) (string, error) {
	m := Manifest{
		RunID:          res.RunID,
		Created:        res.Created,
		DeferredScript: res.DeferredScript,
		Jobs:           res.Jobs,
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("failed to encode sweep manifest: %w", err)
	}

	path := ManifestPath(logDir, res.DateTag)
	if err := utils.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write sweep manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by Run.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sweep manifest %s: %w", path, err)
	}
	return &m, nil
}
