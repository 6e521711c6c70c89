package fileop

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, name string, data string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile(%q) failed: %v", name, err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.QOI", "c.qoi", "notes.txt"} {
		touch(t, filepath.Join(dir, name), "x")
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.qoi"), 0o755); err != nil {
		t.Fatalf("Mkdir() failed: %v", err)
	}

	got, err := List(dir, ".qoi")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	want := []string{filepath.Join(dir, "b.QOI"), filepath.Join(dir, "c.qoi")}
	if !slices.Equal(got, want) {
		t.Errorf("List(.qoi) = %v, want %v", got, want)
	}

	all, err := List(dir)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List() returned %d files, want 4", len(all))
	}

	if _, err := List(filepath.Join(dir, "missing")); err == nil {
		t.Error("List(missing) should fail")
	}
}

func TestReplaceExt(t *testing.T) {
	for in, want := range map[string]string{
		"dice.png":      "dice.qoi",
		"archive.tar":   "archive.qoi",
		"noext":         "noext.qoi",
		"dir/kodim.bmp": "dir/kodim.qoi",
	} {
		if got := ReplaceExt(in, ".qoi"); got != want {
			t.Errorf("ReplaceExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.qoi")

	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "qoif")
		return err
	}
	if err := WriteAtomic(dest, false, write); err != nil {
		t.Fatalf("WriteAtomic() failed: %v", err)
	}
	if data, err := os.ReadFile(dest); err != nil || string(data) != "qoif" {
		t.Fatalf("ReadFile() = %q, %v; want %q", data, err, "qoif")
	}

	if err := WriteAtomic(dest, false, write); err == nil {
		t.Error("WriteAtomic() over an existing file should fail without overwrite")
	}
	if err := WriteAtomic(dest, true, write); err != nil {
		t.Errorf("WriteAtomic(overwrite) failed: %v", err)
	}

	boom := errors.New("boom")
	failed := filepath.Join(dir, "failed.qoi")
	if err := WriteAtomic(failed, false, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("WriteAtomic() error = %v, want %v", err, boom)
	}
	if _, err := os.Stat(failed); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("failed write left %q behind: %v", failed, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("folder holds %d entries after writes, want 1", len(entries))
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "in.qoi")
	touch(t, name, "data")
	if data, err := ReadFile(name); err != nil || string(data) != "data" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
	if _, err := ReadFile(dir); err == nil {
		t.Error("ReadFile(dir) should fail")
	}
}

func TestResolveDirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "file.png"), "x")
	abs := filepath.Join(t.TempDir(), "out")

	scan, rel, fixed := dir, "qoi", abs
	if err := ResolveDirs(&scan, &rel, &fixed); err != nil {
		t.Fatalf("ResolveDirs() failed: %v", err)
	}
	if rel != filepath.Join(dir, "qoi") {
		t.Errorf("relative dest = %q, want it under %q", rel, dir)
	}
	if fixed != abs {
		t.Errorf("absolute dest = %q, want %q", fixed, abs)
	}

	for _, bad := range []string{filepath.Join(dir, "nope"), filepath.Join(dir, "file.png")} {
		scan := bad
		if err := ResolveDirs(&scan); err == nil {
			t.Errorf("ResolveDirs(%q) succeeded", bad)
		}
	}
}
