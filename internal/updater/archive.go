package updater

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Error variables for archive installation
var (
	// ErrBadArchive is returned when the downloaded bytes are not a zip archive
	ErrBadArchive = errors.New("malformed addon archive")
	// ErrUnsafeArchivePath is returned when an entry would land outside the install directory
	ErrUnsafeArchivePath = errors.New("archive entry escapes install directory")
)

// ExtractArchive unpacks a zip archive into dest, overwriting files that
// already exist. Entries are checked before anything is written, so a
// rejected archive leaves dest untouched.
func ExtractArchive(data []byte, dest string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	targets := make([]string, len(reader.File))
	for i, f := range reader.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return err
		}
		targets[i] = target
	}

	for i, f := range reader.File {
		if err := extractEntry(f, targets[i]); err != nil {
			return err
		}
	}
	return nil
}

// entryPath returns where name is written under root. Entries that resolve
// to root itself are malformed.
func entryPath(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}

	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	if rel == "." {
		return "", fmt.Errorf("%w: entry %q names the install directory", ErrBadArchive, name)
	}
	return target, nil
}

func extractEntry(f *zip.File, target string) error {
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadArchive, f.Name, err)
	}
	defer src.Close()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("%w: %s: %v", ErrBadArchive, f.Name, err)
	}
	return dst.Close()
}
