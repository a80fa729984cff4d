package local

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"cleanstage/store"
)

const (
	StateRunning  = "running"
	StateFinished = "finished"
	StateFailed   = "failed"
)

// Edge links a run to an artifact version it used or produced.
type Edge struct {
	Artifact string    `yaml:"artifact"`
	Digest   string    `yaml:"digest"`
	At       time.Time `yaml:"at"`
}

type RunRecord struct {
	store.Run `yaml:",inline"`

	State      string     `yaml:"state"`
	FinishedAt *time.Time `yaml:"finished_at,omitempty"`
	Error      string     `yaml:"error,omitempty"`
	Used       []Edge     `yaml:"used,omitempty"`
	Produced   []Edge     `yaml:"produced,omitempty"`
}

func readYAML(path string, v any) error {
	raw, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, v)
}

// writeYAML replaces path atomically: readers see the old or the new
// document, never a torn one.
func writeYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
