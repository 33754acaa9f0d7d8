package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/planweave/planweave/internal/models"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple path", input: "plan.xml", want: "plan.xml"},
		{name: "leading slash stripped", input: "/plans/main.xml", want: "plans/main.xml"},
		{name: "redundant segments cleaned", input: "plans//./main.xml", want: "plans/main.xml"},
		{name: "internal traversal collapses", input: "plans/../main.xml", want: "main.xml"},
		{name: "empty path", input: "", wantErr: errors.New("empty document path")},
		{name: "dot path", input: ".", wantErr: errors.New("empty document path")},
		{name: "escapes root", input: "../outside.xml", wantErr: ErrEscapesRoot},
		{name: "deep escape", input: "a/../../outside.xml", wantErr: ErrEscapesRoot},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.input)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("Normalize(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Normalize(%q) = %q, %v, want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fromDoc string
		target  string
		want    string
		wantErr bool
	}{
		{name: "sibling", fromDoc: "main.xml", target: "sub.xml", want: "sub.xml"},
		{name: "subdirectory", fromDoc: "main.xml", target: "sub/extra.xml", want: "sub/extra.xml"},
		{name: "relative to importing dir", fromDoc: "plans/main.xml", target: "sub.xml", want: "plans/sub.xml"},
		{name: "up one level", fromDoc: "plans/main.xml", target: "../shared.xml", want: "shared.xml"},
		{name: "windows separators", fromDoc: "main.xml", target: `sub\extra.xml`, want: "sub/extra.xml"},
		{name: "empty target", fromDoc: "main.xml", target: "", wantErr: true},
		{name: "escapes root", fromDoc: "main.xml", target: "../outside.xml", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Canonical(tt.fromDoc, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Canonical(%q, %q) = %q, want error", tt.fromDoc, tt.target, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Canonical(%q, %q) = %q, %v, want %q", tt.fromDoc, tt.target, got, err, tt.want)
			}
		})
	}
}

func TestFSStore_ReadWriteExists(t *testing.T) {
	t.Parallel()

	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}
	ctx := context.Background()

	ok, err := s.Exists(ctx, "plans/main.xml")
	if err != nil || ok {
		t.Fatalf("Exists() before write = %v, %v", ok, err)
	}

	content := []byte("<plan/>\n")
	if err := s.Write(ctx, "plans/main.xml", content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := s.Read(ctx, "plans/main.xml")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Read() = %q, want %q", got, content)
	}

	ok, err = s.Exists(ctx, "plans/main.xml")
	if err != nil || !ok {
		t.Errorf("Exists() after write = %v, %v", ok, err)
	}
}

func TestFSStore_ReadMissing(t *testing.T) {
	t.Parallel()

	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	_, err = s.Read(context.Background(), "missing.xml")
	if !models.IsNotFound(err) {
		t.Errorf("Read() error = %v, want not found", err)
	}
}

func TestFSStore_RejectsEscape(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.xml")
	if err := os.WriteFile(outside, []byte("<plan/>"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	s, err := NewFSStore(root)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	if _, err := s.Read(context.Background(), "../outside.xml"); err == nil {
		t.Errorf("Read() outside root succeeded")
	}
	if err := s.Write(context.Background(), "../evil.xml", []byte("x")); err == nil {
		t.Errorf("Write() outside root succeeded")
	}
}

func TestNewFSStore_RequiresDirectory(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := NewFSStore(file); err == nil {
		t.Errorf("NewFSStore() on a regular file succeeded")
	}
	if _, err := NewFSStore(filepath.Join(file, "nope")); err == nil {
		t.Errorf("NewFSStore() on a missing path succeeded")
	}
}
