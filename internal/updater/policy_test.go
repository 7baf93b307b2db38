package updater

import (
	"testing"
	"time"

	"github.com/KalleV/WSAddonUpdater/internal/addon"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func remoteAt(date int64) addon.Record {
	return addon.Record{Name: "Bar", URL: "http://x/bar", Date: date}
}

// =============================================================================
// Property-Based Tests
// =============================================================================

func TestNeedsUpdateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	dateGen := gen.Int64Range(1, 4102444800)

	properties.Property("Untracked addons always need an update", prop.ForAll(
		func(remote, created int64) bool {
			return NeedsUpdate(nil, remoteAt(remote), time.Unix(created, 0))
		},
		dateGen, dateGen,
	))

	properties.Property("Equal release dates force an update", prop.ForAll(
		func(date, created int64) bool {
			stored := remoteAt(date)
			return NeedsUpdate(&stored, remoteAt(date), time.Unix(created, 0))
		},
		dateGen, dateGen,
	))

	properties.Property("Differing dates follow the folder age", prop.ForAll(
		func(storedDate, remote, created int64) bool {
			if storedDate == remote {
				return true
			}
			stored := remoteAt(storedDate)
			got := NeedsUpdate(&stored, remoteAt(remote), time.Unix(created, 0))
			return got == (created < remote)
		},
		dateGen, dateGen, dateGen,
	))

	properties.TestingRun(t)
}

// =============================================================================
// Unit Tests
// =============================================================================

func TestNeedsUpdate(t *testing.T) {
	stored := func(date int64) *addon.Record {
		rec := remoteAt(date)
		return &rec
	}

	tests := []struct {
		name    string
		stored  *addon.Record
		remote  int64
		created int64
		want    bool
	}{
		{"no record", nil, 200, 300, true},
		{"equal dates", stored(100), 100, 500, true},
		{"folder older than release", stored(100), 200, 150, true},
		{"folder created at release", stored(300), 200, 200, false},
		{"folder newer than release", stored(300), 200, 250, false},
		{"stored older, folder newer", stored(100), 200, 250, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeedsUpdate(tt.stored, remoteAt(tt.remote), time.Unix(tt.created, 0))
			if got != tt.want {
				t.Errorf("NeedsUpdate() = %v, want %v", got, tt.want)
			}
		})
	}
}
