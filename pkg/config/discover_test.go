package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, ProjectFile), []byte("separator: /\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "data", "regions")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	// Should find the file from a subdirectory
	found, ok := FindProjectConfig(sub)
	if !ok {
		t.Fatal("expected to find project config")
	}
	if found != filepath.Join(root, ProjectFile) {
		t.Errorf("expected %q, got %q", filepath.Join(root, ProjectFile), found)
	}
}

func TestFindProjectConfig_IgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", root)

	if err := os.MkdirAll(filepath.Join(root, "proj", ProjectFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := FindProjectConfig(filepath.Join(root, "proj")); ok {
		t.Error("a directory named like the config file must not match")
	}
}

func TestFindProjectConfig_StopsAtHome(t *testing.T) {
	outer := t.TempDir()
	home := filepath.Join(outer, "home")
	work := filepath.Join(home, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	// Above home: must not be found
	if err := os.WriteFile(filepath.Join(outer, ProjectFile), []byte("separator: /\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", home)

	if found, ok := FindProjectConfig(work); ok {
		t.Errorf("search should stop at home, found %q", found)
	}
}
