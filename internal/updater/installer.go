package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/KalleV/WSAddonUpdater/internal/addon"
	"github.com/KalleV/WSAddonUpdater/internal/catalog"
	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
)

// ErrInstallFailed wraps every failure of a single addon install
var ErrInstallFailed = errors.New("addon install failed")

// DefaultDownloadSuffix is appended to a project URL to reach its latest file
const DefaultDownloadSuffix = "/files/latest"

// Recorder persists installed addon records along with the folder they
// were installed for
type Recorder interface {
	UpsertInstalled(folder string, rec addon.Record) error
}

// Installer downloads an addon archive, extracts it into the install
// directory and records the installed release.
type Installer struct {
	fetcher  catalog.Fetcher
	recorder Recorder
	dir      string
	suffix   string
}

// InstallerOption is a functional option for configuring Installer
type InstallerOption func(*Installer)

// WithDownloadSuffix sets the path appended to project URLs for downloads
func WithDownloadSuffix(suffix string) InstallerOption {
	return func(i *Installer) {
		i.suffix = suffix
	}
}

// NewInstaller creates an installer that extracts into dir.
func NewInstaller(fetcher catalog.Fetcher, recorder Recorder, dir string, opts ...InstallerOption) *Installer {
	i := &Installer{
		fetcher:  fetcher,
		recorder: recorder,
		dir:      dir,
		suffix:   DefaultDownloadSuffix,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Dir returns the install directory.
func (i *Installer) Dir() string {
	return i.dir
}

// Install fetches the latest archive of rec, merges it over the install
// directory and records rec for folder. The record is only written after a
// successful extraction. Errors are logged and wrapped with ErrInstallFailed.
func (i *Installer) Install(ctx context.Context, folder string, rec addon.Record) error {
	url := rec.DownloadURL(i.suffix)

	data, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		return i.fail(rec, "download", err)
	}

	if err := ExtractArchive(data, i.dir); err != nil {
		return i.fail(rec, "extract", err)
	}

	if err := i.recorder.UpsertInstalled(folder, rec); err != nil {
		return i.fail(rec, "record", err)
	}

	logger.Debug("installed %s from %s", rec.Name, url)
	return nil
}

func (i *Installer) fail(rec addon.Record, step string, err error) error {
	logger.Error("%s %s: %v", step, rec.Name, err)
	return fmt.Errorf("%w: %s: %s: %w", ErrInstallFailed, rec.Name, step, err)
}
