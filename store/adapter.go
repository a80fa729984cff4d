// Package store is the tracking-store boundary: resolving artifact
// references to local files, registering produced artifacts, and recording
// which run used or produced which artifact version.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("artifact not found")
	ErrInvalidRef  = errors.New("invalid artifact reference")
	ErrTypeClash   = errors.New("artifact exists with a different type")
	ErrUnknownRun  = errors.New("unknown run")
	ErrUnavailable = errors.New("store unavailable")
)

// Run is the record a store keeps for one invocation.
type Run struct {
	ID        string            `yaml:"id" json:"id"`
	JobType   string            `yaml:"job_type" json:"job_type"`
	Config    map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
	StartedAt time.Time         `yaml:"started_at" json:"started_at"`
}

// Artifact is a file about to be registered.
type Artifact struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Path        string            `json:"path"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Version identifies one immutable registered artifact version.
type Version struct {
	Name        string    `yaml:"name" json:"name"`
	Version     string    `yaml:"version" json:"version"` // "v<N>"
	Type        string    `yaml:"type" json:"type"`
	Description string    `yaml:"description" json:"description"`
	File        string    `yaml:"file" json:"file"`
	Digest      string    `yaml:"digest" json:"digest"` // sha256 hex of the file
	Size        int64     `yaml:"size" json:"size"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	CreatedBy   string    `yaml:"created_by,omitempty" json:"created_by,omitempty"`
	Aliases     []string  `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

func (v Version) Ref() string { return v.Name + ":" + v.Version }

// Resolved is a fetched artifact version available on local disk.
type Resolved struct {
	Path    string
	Version Version
}

type Adapter interface {
	Configure(Config) error

	StartRun(ctx context.Context, run Run) error
	// Use resolves ref to a local file and records that runID consumed it.
	Use(ctx context.Context, runID string, ref Ref) (Resolved, error)
	// Log registers a new artifact version and records that runID produced
	// it. Registration is atomic: on error no version is visible.
	Log(ctx context.Context, runID string, a Artifact) (Version, error)
	FinishRun(ctx context.Context, runID string, runErr error) error

	Close() error
}
