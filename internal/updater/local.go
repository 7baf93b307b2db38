package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/djherbis/times"
)

// ListInstalledAddons returns the names of the addon folders in dir, in
// directory listing order. Plain files are ignored.
func ListInstalledAddons(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list addons in %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// CreationTime returns when path was created. Filesystems without a birth
// time fall back to the inode change time, then to the modification time.
func CreationTime(path string) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, err
	}

	switch {
	case ts.HasBirthTime():
		return ts.BirthTime(), nil
	case ts.HasChangeTime():
		return ts.ChangeTime(), nil
	default:
		return ts.ModTime(), nil
	}
}

// addonCreationTime returns the creation time of the addon folder name in dir.
func addonCreationTime(dir, name string) (time.Time, error) {
	return CreationTime(filepath.Join(dir, name))
}
