// Package local is a tracking store kept in a directory tree:
//
//	<root>/<project>/artifacts/<name>/v<N>/{<file>,manifest.yaml}
//	<root>/<project>/artifacts/<name>/aliases.yaml
//	<root>/<project>/runs/<run-id>.yaml
//
// Versions are immutable once renamed into place. The driver serializes its
// own operations; it does not lock against other processes sharing the root.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"cleanstage/internal/logging"
	"cleanstage/store"
)

const (
	manifestFile = "manifest.yaml"
	aliasesFile  = "aliases.yaml"
)

type Driver struct {
	cfg  store.Config
	root string
	now  func() time.Time

	mu sync.Mutex
}

func (d *Driver) Configure(cfg store.Config) error {
	cfg.ApplyDefaults()
	if cfg.Root == "" {
		return errors.New("local-store: root is required")
	}
	if !store.ValidName(cfg.Project) {
		return fmt.Errorf("local-store: invalid project %q", cfg.Project)
	}
	d.cfg = cfg
	d.root = filepath.Join(cfg.Root, cfg.Project)
	if d.now == nil {
		d.now = time.Now
	}
	for _, dir := range []string{d.artifactsDir(), d.runsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("local-store: %w", err)
		}
	}
	return nil
}

func (d *Driver) Close() error { return nil }

func (d *Driver) artifactsDir() string           { return filepath.Join(d.root, "artifacts") }
func (d *Driver) runsDir() string                { return filepath.Join(d.root, "runs") }
func (d *Driver) artifactDir(name string) string { return filepath.Join(d.artifactsDir(), name) }
func (d *Driver) runPath(id string) string       { return filepath.Join(d.runsDir(), id+".yaml") }

/*──────── runs ───────*/

func (d *Driver) StartRun(ctx context.Context, run store.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !store.ValidName(run.ID) {
		return fmt.Errorf("local-store: invalid run id %q", run.ID)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if run.StartedAt.IsZero() {
		run.StartedAt = d.now().UTC()
	}
	return writeYAML(d.runPath(run.ID), RunRecord{Run: run, State: StateRunning})
}

func (d *Driver) FinishRun(ctx context.Context, runID string, runErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateRun(runID, func(rec *RunRecord) {
		at := d.now().UTC()
		rec.FinishedAt = &at
		rec.State = StateFinished
		if runErr != nil {
			rec.State = StateFailed
			rec.Error = runErr.Error()
		}
	})
}

// RunRecord returns what the store knows about a run.
func (d *Driver) RunRecord(runID string) (RunRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRun(runID)
}

func (d *Driver) readRun(runID string) (RunRecord, error) {
	var rec RunRecord
	if !store.ValidName(runID) {
		return rec, fmt.Errorf("%w: %q", store.ErrUnknownRun, runID)
	}
	err := readYAML(d.runPath(runID), &rec)
	if errors.Is(err, fs.ErrNotExist) {
		return rec, fmt.Errorf("%w: %q", store.ErrUnknownRun, runID)
	}
	return rec, err
}

func (d *Driver) updateRun(runID string, fn func(*RunRecord)) error {
	rec, err := d.readRun(runID)
	if err != nil {
		return err
	}
	fn(&rec)
	return writeYAML(d.runPath(runID), rec)
}

/*──────── use ───────*/

func (d *Driver) Use(ctx context.Context, runID string, ref store.Ref) (store.Resolved, error) {
	if err := ctx.Err(); err != nil {
		return store.Resolved{}, err
	}
	if ref.Project != "" && ref.Project != d.cfg.Project {
		return store.Resolved{}, fmt.Errorf("%w: %s (store project is %q)", store.ErrNotFound, ref, d.cfg.Project)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	v, dir, err := d.resolve(ref.Name, ref.Version)
	if err != nil {
		return store.Resolved{}, err
	}
	path := filepath.Join(dir, v.File)
	digest, _, err := hashFile(path)
	if err != nil {
		return store.Resolved{}, fmt.Errorf("local-store: %s: %w", v.Ref(), err)
	}
	if digest != v.Digest {
		return store.Resolved{}, fmt.Errorf("local-store: %s: content digest mismatch", v.Ref())
	}

	if runID != "" {
		err := d.updateRun(runID, func(rec *RunRecord) {
			rec.Used = append(rec.Used, Edge{Artifact: v.Ref(), Digest: v.Digest, At: d.now().UTC()})
		})
		if err != nil {
			return store.Resolved{}, err
		}
	}
	return store.Resolved{Path: path, Version: v}, nil
}

// resolve maps a version or alias to its manifest and directory.
func (d *Driver) resolve(name, version string) (store.Version, string, error) {
	if !store.ValidName(name) {
		return store.Version{}, "", fmt.Errorf("%w: %q", store.ErrInvalidRef, name)
	}
	aliases, err := d.readAliases(name)
	if err != nil {
		return store.Version{}, "", err
	}
	if _, ok := store.VersionNumber(version); !ok {
		target, ok := aliases[version]
		if !ok {
			return store.Version{}, "", fmt.Errorf("%w: %s:%s", store.ErrNotFound, name, version)
		}
		version = target
	}
	dir := filepath.Join(d.artifactDir(name), version)
	var v store.Version
	if err := readYAML(filepath.Join(dir, manifestFile), &v); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, "", fmt.Errorf("%w: %s:%s", store.ErrNotFound, name, version)
		}
		return v, "", fmt.Errorf("local-store: %s:%s: %w", name, version, err)
	}
	v.Aliases = aliasesOf(aliases, v.Version)
	return v, dir, nil
}

/*──────── log ───────*/

func (d *Driver) Log(ctx context.Context, runID string, a store.Artifact) (store.Version, error) {
	if err := ctx.Err(); err != nil {
		return store.Version{}, err
	}
	if !store.ValidName(a.Name) {
		return store.Version{}, fmt.Errorf("%w: %q", store.ErrInvalidRef, a.Name)
	}
	if a.Type == "" {
		return store.Version{}, errors.New("local-store: artifact type is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if runID != "" {
		if _, err := d.readRun(runID); err != nil {
			return store.Version{}, err
		}
	}
	artDir := d.artifactDir(a.Name)
	if err := os.MkdirAll(artDir, 0o755); err != nil {
		return store.Version{}, fmt.Errorf("local-store: %w", err)
	}
	aliases, err := d.readAliases(a.Name)
	if err != nil {
		return store.Version{}, err
	}
	var latest *store.Version
	if _, ok := aliases[store.AliasLatest]; ok {
		v, _, err := d.resolve(a.Name, store.AliasLatest)
		if err != nil {
			return store.Version{}, err
		}
		if v.Type != a.Type {
			return store.Version{}, fmt.Errorf("%w: %s is %q, not %q", store.ErrTypeClash, a.Name, v.Type, a.Type)
		}
		latest = &v
	}

	staging, err := os.MkdirTemp(artDir, ".staging-")
	if err != nil {
		return store.Version{}, fmt.Errorf("local-store: %w", err)
	}
	defer os.RemoveAll(staging)

	fileName := filepath.Base(a.Path)
	digest, size, err := copyFile(a.Path, filepath.Join(staging, fileName))
	if err != nil {
		return store.Version{}, fmt.Errorf("local-store: stage %s: %w", a.Path, err)
	}

	// Same bytes as the newest version: reuse it instead of minting a copy.
	if latest != nil && latest.Digest == digest {
		if err := d.recordProduced(runID, *latest); err != nil {
			return store.Version{}, err
		}
		logging.L().Info("artifact unchanged; reusing version", "ref", latest.Ref())
		return *latest, nil
	}

	n, err := d.nextVersion(artDir)
	if err != nil {
		return store.Version{}, err
	}
	v := store.Version{
		Name:        a.Name,
		Version:     fmt.Sprintf("v%d", n),
		Type:        a.Type,
		Description: a.Description,
		File:        fileName,
		Digest:      digest,
		Size:        size,
		CreatedAt:   d.now().UTC(),
		CreatedBy:   runID,
		Metadata:    a.Metadata,
	}
	if err := writeYAML(filepath.Join(staging, manifestFile), v); err != nil {
		return store.Version{}, fmt.Errorf("local-store: %w", err)
	}
	final := filepath.Join(artDir, v.Version)
	if err := os.Rename(staging, final); err != nil {
		return store.Version{}, fmt.Errorf("local-store: publish %s: %w", v.Ref(), err)
	}

	prev, hadPrev := aliases[store.AliasLatest]
	aliases[store.AliasLatest] = v.Version
	rollback := func() {
		if hadPrev {
			aliases[store.AliasLatest] = prev
		} else {
			delete(aliases, store.AliasLatest)
		}
		_ = writeYAML(filepath.Join(artDir, aliasesFile), aliases)
		_ = os.RemoveAll(final)
	}
	if err := writeYAML(filepath.Join(artDir, aliasesFile), aliases); err != nil {
		rollback()
		return store.Version{}, fmt.Errorf("local-store: %w", err)
	}
	if err := d.recordProduced(runID, v); err != nil {
		rollback()
		return store.Version{}, err
	}

	v.Aliases = aliasesOf(aliases, v.Version)
	logging.L().Info("artifact registered", "ref", v.Ref(), "type", v.Type, "size", humanize.Bytes(uint64(size)))
	return v, nil
}

func (d *Driver) recordProduced(runID string, v store.Version) error {
	if runID == "" {
		return nil
	}
	return d.updateRun(runID, func(rec *RunRecord) {
		rec.Produced = append(rec.Produced, Edge{Artifact: v.Ref(), Digest: v.Digest, At: d.now().UTC()})
	})
}

func (d *Driver) nextVersion(artDir string) (int, error) {
	entries, err := os.ReadDir(artDir)
	if err != nil {
		return 0, fmt.Errorf("local-store: %w", err)
	}
	next := 0
	for _, e := range entries {
		if n, ok := store.VersionNumber(e.Name()); ok && e.IsDir() && n >= next {
			next = n + 1
		}
	}
	return next, nil
}

// Versions lists every version of name, oldest first.
func (d *Driver) Versions(name string) ([]store.Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.nextVersion(d.artifactDir(name))
	if err != nil {
		return nil, err
	}
	var out []store.Version
	for i := 0; i < n; i++ {
		v, _, err := d.resolve(name, fmt.Sprintf("v%d", i))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Driver) readAliases(name string) (map[string]string, error) {
	aliases := map[string]string{}
	err := readYAML(filepath.Join(d.artifactDir(name), aliasesFile), &aliases)
	if errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Stat(d.artifactDir(name)); errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
		}
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("local-store: %s: %w", name, err)
	}
	return aliases, nil
}

func aliasesOf(aliases map[string]string, version string) []string {
	var out []string
	for alias, v := range aliases {
		if v == version {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

/*──────── files ───────*/

func copyFile(src, dst string) (digest string, size int64, err error) {
	in, err := os.Open(src) //#nosec G304
	if err != nil {
		return "", 0, err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o444)
	if err != nil {
		return "", 0, err
	}
	h := sha256.New()
	size, err = io.Copy(io.MultiWriter(out, h), in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func init() {
	store.Register("local", func() store.Adapter { return &Driver{} })
}
