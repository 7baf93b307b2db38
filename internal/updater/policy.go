// Package updater decides which installed addons need an update, downloads
// and extracts their archives, and runs the search and install stages of an
// update run.
package updater

import (
	"time"

	"github.com/KalleV/WSAddonUpdater/internal/addon"
)

// NeedsUpdate reports whether the addon described by remote should be
// installed over the local copy.
//
// The rules are evaluated in order:
//   - no stored record: install, so the addon becomes tracked
//   - stored release date equal to the remote one: install
//   - local directory created before the remote release: install
//   - otherwise: skip
//
// An equal release date forces a refresh. Stored dates that differ from the
// remote one fall through to the directory age check.
func NeedsUpdate(stored *addon.Record, remote addon.Record, localCreated time.Time) bool {
	if stored == nil {
		return true
	}
	if stored.Date == remote.Date {
		return true
	}
	return localCreated.Before(remote.Released())
}
