// Package store provides document storage for the partition engine. Paths
// are always canonical: clean, slash-separated, relative to the store
// root.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/planweave/planweave/internal/models"
)

// ErrEscapesRoot is returned when a path points outside the document root
var ErrEscapesRoot = errors.New("path escapes document root")

// Store reads and writes document content by canonical path. There is no
// caching at this layer; every Read goes to storage.
type Store interface {
	Read(ctx context.Context, docPath string) ([]byte, error)
	Write(ctx context.Context, docPath string, data []byte) error
	Exists(ctx context.Context, docPath string) (bool, error)
}

// Normalize canonicalizes an entry path: slashes only, no leading slash,
// no traversal above the root.
func Normalize(docPath string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(filepath.ToSlash(docPath), "/"))
	if cleaned == "." || cleaned == "" {
		return "", fmt.Errorf("empty document path")
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrEscapesRoot
	}
	return cleaned, nil
}

// Canonical resolves an import target written in the document at fromDoc
// into a canonical path. Targets are relative to the importing document's
// directory.
func Canonical(fromDoc, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("empty import target")
	}
	joined := path.Join(path.Dir(fromDoc), filepath.ToSlash(target))
	return Normalize(joined)
}

// FSStore stores documents as files under a root directory
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at dir
func NewFSStore(dir string) (*FSStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("document root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory", abs)
	}
	return &FSStore{root: abs}, nil
}

// Root returns the absolute document root directory
func (s *FSStore) Root() string {
	return s.root
}

// resolve maps a canonical document path onto the filesystem, rejecting
// anything that would land outside the root
func (s *FSStore) resolve(docPath string) (string, error) {
	canonical, err := Normalize(docPath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(canonical))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", ErrEscapesRoot
	}
	return full, nil
}

func (s *FSStore) Read(ctx context.Context, docPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(docPath)
	if err != nil {
		return nil, models.NewDocError(models.KindNotFound, docPath, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.Errorf(models.KindNotFound, docPath, "document does not exist")
		}
		return nil, models.NewDocError(models.KindNotFound, docPath, err)
	}
	return data, nil
}

func (s *FSStore) Write(ctx context.Context, docPath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(docPath)
	if err != nil {
		return models.NewDocError(models.KindWriteFailure, docPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return models.NewDocError(models.KindWriteFailure, docPath, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return models.NewDocError(models.KindWriteFailure, docPath, err)
	}
	return nil
}

func (s *FSStore) Exists(ctx context.Context, docPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := s.resolve(docPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Ping verifies the document root is still reachable. Used by health
// checks.
func (s *FSStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("document root %s is not a directory", s.root)
	}
	return nil
}
