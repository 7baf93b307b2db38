package updater

import (
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Report summarizes a finished run. Name lists hold local folder names in
// the order the stages processed them.
type Report struct {
	RunID     string
	Searched  int
	Queued    []string
	Installed []string
	Current   []string // resolved and already up to date
	Missing   []string // no catalog match
	Failed    []string // queued but not installed
	// Resolved maps local folder names to the catalog name they resolved to
	Resolved  map[string]string
	Cancelled bool
	// Err aggregates install failures; nil when every queued addon installed
	Err error
}

// Tracked returns every name a store record may legitimately use after this
// run: the local folder names and the catalog names they resolved to.
func (r Report) Tracked(local []string) []string {
	seen := make(map[string]struct{}, len(local)+len(r.Resolved))
	for _, name := range local {
		seen[name] = struct{}{}
	}
	for _, remote := range r.Resolved {
		seen[remote] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OK reports whether the run finished without missing or failed addons.
func (r Report) OK() bool {
	return !r.Cancelled && len(r.Missing) == 0 && len(r.Failed) == 0
}

// failures collects per-addon install errors
type failures struct {
	errs *multierror.Error
}

func (f *failures) add(err error) {
	f.errs = multierror.Append(f.errs, err)
}

func (f *failures) err() error {
	return f.errs.ErrorOrNil()
}
