package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/KalleV/WSAddonUpdater/internal/addon"
	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
)

// ErrNotFound is returned when no search term leads to a complete catalog entry
var ErrNotFound = errors.New("addon not found on catalog")

// Default catalog endpoints
const (
	DefaultSearchURL   = "http://www.curse.com/search/ws-addons"
	DefaultProjectURL  = "http://wildstar.curseforge.com/"
	DefaultGameSegment = "/wildstar/"
)

// Endpoints locates the catalog.
type Endpoints struct {
	// SearchURL is the keyword search page; the term goes in the "search" parameter
	SearchURL string
	// ProjectURL is the base against which result links are resolved
	ProjectURL string
	// GameSegment is removed from result links before resolving them
	GameSegment string
}

// DefaultEndpoints returns the public catalog endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		SearchURL:   DefaultSearchURL,
		ProjectURL:  DefaultProjectURL,
		GameSegment: DefaultGameSegment,
	}
}

// WarnFunc receives a human-readable warning about a local addon.
type WarnFunc func(name, message string)

// Resolver maps local addon names to catalog entries.
//
// Results are memoized for the lifetime of the resolver, including misses:
// a name that was not found is never searched again. The caches are not
// synchronized; a resolver belongs to a single goroutine. Construct one
// resolver per run so catalog changes are picked up.
type Resolver struct {
	fetcher   Fetcher
	endpoints Endpoints
	aliases   Aliases
	warn      WarnFunc

	found    map[string]addon.Record
	notFound map[string]struct{}
}

// ResolverOption is a functional option for configuring Resolver
type ResolverOption func(*Resolver)

// WithEndpoints sets the catalog endpoints
func WithEndpoints(endpoints Endpoints) ResolverOption {
	return func(r *Resolver) {
		r.endpoints = endpoints
	}
}

// WithAliases sets manual search terms for local names
func WithAliases(aliases Aliases) ResolverOption {
	return func(r *Resolver) {
		r.aliases = aliases
	}
}

// WithWarnFunc sets the receiver of "not found" warnings
func WithWarnFunc(fn WarnFunc) ResolverOption {
	return func(r *Resolver) {
		r.warn = fn
	}
}

// NewResolver creates a resolver that queries the catalog through fetcher.
func NewResolver(fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:   fetcher,
		endpoints: DefaultEndpoints(),
		aliases:   Aliases{},
		warn:      func(string, string) {},
		found:     make(map[string]addon.Record),
		notFound:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the catalog entry for a local addon name.
// Returns ErrNotFound if no search term yields a complete entry; the miss is
// cached and reported once through the warn function.
func (r *Resolver) Resolve(ctx context.Context, localName string) (addon.Record, error) {
	if _, miss := r.notFound[localName]; miss {
		return addon.Record{}, fmt.Errorf("%w: %s", ErrNotFound, localName)
	}
	if rec, ok := r.found[localName]; ok {
		return rec, nil
	}

	rec, err := r.searchOnline(ctx, localName)
	if err != nil {
		if ctx.Err() != nil {
			return addon.Record{}, ctx.Err()
		}
		r.notFound[localName] = struct{}{}
		r.warn(localName, fmt.Sprintf("Unable to find '%s' on the catalog", localName))
		return addon.Record{}, fmt.Errorf("%w: %s", ErrNotFound, localName)
	}

	r.found[localName] = rec
	return rec, nil
}

// searchOnline tries every search term until one yields a complete entry.
func (r *Resolver) searchOnline(ctx context.Context, localName string) (addon.Record, error) {
	alias, _ := r.aliases.Lookup(localName)

	for _, term := range SearchTerms(localName, alias) {
		if ctx.Err() != nil {
			return addon.Record{}, ctx.Err()
		}

		rec, err := r.lookup(ctx, term)
		if err == nil {
			logger.Debug("resolved %q via %q: %s", localName, term, rec)
			return rec, nil
		}
		if errors.Is(err, ErrNoResults) {
			logger.Debug("no results for %q", term)
		} else {
			logger.Warn("search %q for %s: %v", term, localName, err)
		}
	}

	return addon.Record{}, ErrNotFound
}

// lookup runs one search term: search page, first result, detail page.
func (r *Resolver) lookup(ctx context.Context, term string) (addon.Record, error) {
	searchURL, err := r.searchURL(term)
	if err != nil {
		return addon.Record{}, err
	}

	page, err := r.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return addon.Record{}, err
	}

	result, err := ParseSearchPage(page)
	if err != nil {
		return addon.Record{}, err
	}

	projectURL, err := r.projectURL(result.Href)
	if err != nil {
		return addon.Record{}, fmt.Errorf("%w: %v", ErrIncompleteEntry, err)
	}

	detail, err := r.fetcher.Fetch(ctx, projectURL)
	if err != nil {
		return addon.Record{}, err
	}

	epoch, err := ParseReleaseEpoch(detail)
	if err != nil {
		return addon.Record{}, err
	}

	rec, err := addon.NewRecord(result.Name, projectURL, epoch)
	if err != nil {
		return addon.Record{}, fmt.Errorf("%w: %v", ErrIncompleteEntry, err)
	}
	return rec, nil
}

// searchURL builds the search request for a term.
func (r *Resolver) searchURL(term string) (string, error) {
	u, err := url.Parse(r.endpoints.SearchURL)
	if err != nil {
		return "", fmt.Errorf("invalid search url: %w", err)
	}
	q := u.Query()
	q.Set("search", term)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// projectURL resolves a result link against the project base after removing
// the game segment: "/ws-addons/wildstar/123-foo" becomes
// "<project base>/ws-addons/123-foo".
func (r *Resolver) projectURL(href string) (string, error) {
	base, err := url.Parse(r.endpoints.ProjectURL)
	if err != nil {
		return "", err
	}
	if r.endpoints.GameSegment != "" {
		href = strings.ReplaceAll(href, r.endpoints.GameSegment, "/")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
