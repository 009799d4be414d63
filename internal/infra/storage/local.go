package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanwahyu/pullup-coach/internal/domain/media"
)

// LocalStore keeps files in one flat directory on disk. It serves both
// analysis uploads and the media library.
type LocalStore struct {
	dir string
}

// NewLocal creates dir when missing.
func NewLocal(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", abs, err)
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Save streams r to the named file and returns its absolute path.
// A partially written file is removed.
func (s *LocalStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(p)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return p, nil
}

// PutFile copies a local file into the store under key.
func (s *LocalStore) PutFile(ctx context.Context, localPath, key string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = s.Save(ctx, key, src)
	return err
}

type localObject struct {
	*os.File
	modTime time.Time
}

func (o localObject) ModTime() time.Time { return o.modTime }

func (s *LocalStore) Open(_ context.Context, key string) (media.Object, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, media.ErrNotFound
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, media.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, media.ErrNotFound
	}
	return localObject{File: f, modTime: st.ModTime()}, nil
}

// Remove ignores files that are already gone.
func (s *LocalStore) Remove(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Sweep deletes regular files last modified before now-olderThan and
// returns how many were removed.
func (s *LocalStore) Sweep(now time.Time, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
