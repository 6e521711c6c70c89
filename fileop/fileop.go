package fileop

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// List returns the paths of the regular files in dir whose extension, in
// lower case, is one of exts. An empty exts matches every file.
func List(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read folder %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if len(exts) > 0 && !slices.Contains(exts, ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// ResolveDirs makes scan absolute and checks that it is a folder. Every
// relative dest is then taken relative to scan.
func ResolveDirs(scan *string, dests ...*string) error {
	scanDir, err := filepath.Abs(*scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", *scan, err)
	}
	*scan = scanDir

	for _, dest := range dests {
		if !filepath.IsAbs(*dest) {
			*dest = filepath.Join(scanDir, *dest)
		}
	}
	return nil
}

// ReplaceExt swaps the extension of name for ext, which includes the dot.
func ReplaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// CheckDest fails when dest already exists, unless overwrite is set and dest
// is a regular file.
func CheckDest(dest string, overwrite bool) error {
	info, err := os.Stat(dest)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot stat destination file %q: %w", dest, err)
		}
		return nil
	}
	if !overwrite {
		return fmt.Errorf("destination file already exists: %q", info.Name())
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("cannot overwrite non-regular file %q: %s", info.Name(), info.Mode().String())
	}
	return nil
}

// ReadFile reads a whole regular file.
func ReadFile(name string) ([]byte, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("cannot stat source file %q: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("cannot read non-regular file %q: %s", info.Name(), info.Mode().String())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("could not read source file %q: %w", name, err)
	}
	return data, nil
}

// WriteAtomic creates dest through a temporary file in the same folder.
// dest only appears once write and the flush succeeded.
func WriteAtomic(dest string, overwrite bool, write func(io.Writer) error) (err error) {
	if err := CheckDest(dest, overwrite); err != nil {
		return err
	}

	dir, base := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}
	outFile, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary destination for %q: %w", dest, err)
	}
	tmpName := outFile.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				slog.Error("could not remove temporary file", "name", tmpName, "error", rmErr)
			}
		}
	}()

	if err = write(outFile); err != nil {
		outFile.Close()
		return err
	}
	if err = outFile.Sync(); err != nil {
		outFile.Close()
		return fmt.Errorf("could not flush temporary destination for %q: %w", dest, err)
	}
	if err = outFile.Close(); err != nil {
		return fmt.Errorf("could not close temporary destination for %q: %w", dest, err)
	}
	if err = os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("could not rename destination file %q: %w", dest, err)
	}
	return nil
}
