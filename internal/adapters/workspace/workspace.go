// Package workspace allocates per-job output directories and locates the
// artifacts an engine leaves behind.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/chordscan/internal/domain/model"
)

const dirPerm = 0o755

// Manager creates job directories under a single root.
type Manager struct {
	root string
	now  func() time.Time
}

// New creates the root directory if needed and returns a Manager for it.
func New(root string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrEmptyRoot
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateDir, root, err)
	}
	m := &Manager{root: root, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the directory jobs are created under.
func (m *Manager) Root() string { return m.root }

// CreateJob allocates a fresh directory named after the current time in
// milliseconds. Two jobs created within the same millisecond collide; the
// second gets ErrJobExists rather than sharing the directory.
func (m *Manager) CreateJob(_ context.Context, in model.Input) (model.Job, error) {
	now := m.now()
	id := strconv.FormatInt(now.UnixMilli(), 10)
	dir := filepath.Join(m.root, id)
	if err := os.Mkdir(dir, dirPerm); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return model.Job{}, fmt.Errorf("%w: %s", ErrJobExists, dir)
		}
		return model.Job{}, fmt.Errorf("%w: %s: %w", ErrCreateDir, dir, err)
	}
	return model.Job{
		ID:        id,
		TraceID:   uuid.NewString(),
		Input:     in,
		OutputDir: dir,
		Status:    model.JobPending,
		CreatedAt: now,
	}, nil
}

// RelPath returns path relative to root using forward slashes. Paths that
// escape root yield ErrOutsideRoot.
func RelPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrOutsideRoot, path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return filepath.ToSlash(rel), nil
}

// FindArtifacts walks dir and returns every regular file whose name ends in
// one of exts, compared case-insensitively. A missing dir yields no paths.
func FindArtifacts(dir string, exts []string) ([]string, error) {
	lower := make([]string, len(exts))
	for i, e := range exts {
		lower[i] = strings.ToLower(e)
	}

	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, e := range lower {
			if strings.HasSuffix(name, e) {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScan, dir, err)
	}
	return out, nil
}

// MostRecent returns the path with the latest modification time. Paths that
// cannot be stat'ed are skipped. Equal timestamps resolve to whichever path
// came first.
func MostRecent(paths []string) (string, bool) {
	var (
		best    string
		bestMod time.Time
		found   bool
	)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(bestMod) {
			best, bestMod, found = p, info.ModTime(), true
		}
	}
	return best, found
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeName replaces every run of characters outside [A-Za-z0-9._-]
// with a single underscore.
func SanitizeName(name string) string {
	return unsafeName.ReplaceAllString(name, "_")
}

// StampedName prefixes a sanitized name with the unix millisecond time.
func StampedName(t time.Time, sep, name string) string {
	return SanitizeName(strconv.FormatInt(t.UnixMilli(), 10) + sep + name)
}

// CopyInto copies the file at src into dir, keeping its base name, and
// returns the new path. Used to bring engine output found elsewhere under
// a served root.
func CopyInto(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCopy, src, err)
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCopy, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("%w: %s: %w", ErrCopy, dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCopy, dst, err)
	}
	return dst, nil
}
