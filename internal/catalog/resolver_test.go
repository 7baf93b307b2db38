package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/KalleV/WSAddonUpdater/internal/catalog"
	"github.com/KalleV/WSAddonUpdater/internal/catalog/catalogtest"
)

// countingFetcher records every URL it is asked for
type countingFetcher struct {
	inner catalog.Fetcher
	urls  []string
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.inner.Fetch(ctx, url)
}

func newResolver(srv *catalogtest.Server, opts ...catalog.ResolverOption) (*catalog.Resolver, *countingFetcher) {
	fetcher := &countingFetcher{inner: catalog.NewHTTPClient()}
	endpoints := catalog.Endpoints{
		SearchURL:   srv.SearchURL(),
		ProjectURL:  srv.ProjectBase(),
		GameSegment: catalogtest.GameSegment,
	}
	opts = append([]catalog.ResolverOption{catalog.WithEndpoints(endpoints)}, opts...)
	return catalog.NewResolver(fetcher, opts...), fetcher
}

func TestResolveViaDroppedLastFragment(t *testing.T) {
	srv := catalogtest.NewServer()
	defer srv.Close()
	srv.Add("Space Stash", catalogtest.Entry{Name: "Space Stash", Slug: "222-space-stash", Epoch: 1407000000})

	resolver, fetcher := newResolver(srv)

	rec, err := resolver.Resolve(context.Background(), "SpaceStashCore")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if rec.Name != "SpaceStash" {
		t.Errorf("Name = %q, want SpaceStash", rec.Name)
	}
	if rec.URL != srv.ProjectURL("222-space-stash") {
		t.Errorf("URL = %q, want %q", rec.URL, srv.ProjectURL("222-space-stash"))
	}
	if rec.Date != 1407000000 {
		t.Errorf("Date = %d, want 1407000000", rec.Date)
	}

	// Three searches (raw, split, dropped) and one detail page
	if srv.Requests(catalogtest.SearchPath) != 3 {
		t.Errorf("expected 3 searches, got %d", srv.Requests(catalogtest.SearchPath))
	}
	if len(fetcher.urls) != 4 {
		t.Errorf("expected 4 requests, got %d: %v", len(fetcher.urls), fetcher.urls)
	}

	// Second call is served from the positive cache
	before := len(fetcher.urls)
	again, err := resolver.Resolve(context.Background(), "SpaceStashCore")
	if err != nil || again != rec {
		t.Errorf("cached Resolve() = %v, %v", again, err)
	}
	if len(fetcher.urls) != before {
		t.Error("cached resolve must not issue requests")
	}
}

func TestResolveNotFoundIsCachedAndWarnedOnce(t *testing.T) {
	srv := catalogtest.NewServer()
	defer srv.Close()

	var warnings []string
	resolver, fetcher := newResolver(srv, catalog.WithWarnFunc(func(name, msg string) {
		warnings = append(warnings, msg)
	}))

	_, err := resolver.Resolve(context.Background(), "Foo")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Unable to find 'Foo'") {
		t.Fatalf("warnings = %v", warnings)
	}

	calls := len(fetcher.urls)
	for i := 0; i < 3; i++ {
		if _, err := resolver.Resolve(context.Background(), "Foo"); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected cached ErrNotFound, got %v", err)
		}
	}
	if len(fetcher.urls) != calls {
		t.Errorf("negative cache hit issued %d requests", len(fetcher.urls)-calls)
	}
	if len(warnings) != 1 {
		t.Errorf("expected a single warning, got %d", len(warnings))
	}
}

func TestResolveFallsThroughFailedRequests(t *testing.T) {
	srv := catalogtest.NewServer()
	defer srv.Close()
	srv.Add("Space Stash Core", catalogtest.Entry{Name: "SpaceStashCore", Slug: "1-ssc", Epoch: 10})

	failing := &scriptedFetcher{
		inner: catalog.NewHTTPClient(),
		fail: func(url string) error {
			if strings.Contains(url, "search=SpaceStashCore") {
				return fmt.Errorf("%w: simulated", catalog.ErrRequestTimeout)
			}
			return nil
		},
	}
	resolver := catalog.NewResolver(failing, catalog.WithEndpoints(catalog.Endpoints{
		SearchURL:   srv.SearchURL(),
		ProjectURL:  srv.ProjectBase(),
		GameSegment: catalogtest.GameSegment,
	}))

	rec, err := resolver.Resolve(context.Background(), "SpaceStashCore")
	if err != nil {
		t.Fatalf("a timeout on one term must not fail the resolve: %v", err)
	}
	if rec.URL != srv.ProjectURL("1-ssc") {
		t.Errorf("URL = %q", rec.URL)
	}
}

func TestResolveIncompleteDetailPage(t *testing.T) {
	srv := catalogtest.NewServer()
	defer srv.Close()
	srv.Add("Foo", catalogtest.Entry{Name: "Foo", Slug: "3-foo", Epoch: 5})
	srv.SetStatus(catalogtest.ProjectPath+"3-foo", http.StatusInternalServerError)

	resolver, _ := newResolver(srv)
	if _, err := resolver.Resolve(context.Background(), "Foo"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound when the detail page fails, got %v", err)
	}
}

func TestResolveUsesAliasFirst(t *testing.T) {
	srv := catalogtest.NewServer()
	defer srv.Close()
	srv.Add("TB-Graphics Options", catalogtest.Entry{Name: "TB-Graphics Options", Slug: "4-tbgo", Epoch: 7})

	resolver, fetcher := newResolver(srv, catalog.WithAliases(catalog.Aliases{"TBGO": "TB-Graphics Options"}))

	rec, err := resolver.Resolve(context.Background(), "TBGO")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if rec.Name != "TBGraphicsOptions" {
		t.Errorf("Name = %q", rec.Name)
	}
	if len(fetcher.urls) != 2 {
		t.Errorf("alias hit should take one search and one detail request, got %v", fetcher.urls)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	srv := catalogtest.NewServer()
	defer srv.Close()

	var warned bool
	resolver, _ := newResolver(srv, catalog.WithWarnFunc(func(string, string) { warned = true }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx, "Foo")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if warned {
		t.Error("cancellation must not be reported as not found")
	}
	if srv.TotalRequests() != 0 {
		t.Errorf("cancelled resolve issued %d requests", srv.TotalRequests())
	}
}

// scriptedFetcher fails selected URLs before delegating
type scriptedFetcher struct {
	inner catalog.Fetcher
	fail  func(url string) error
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.fail(url); err != nil {
		return nil, err
	}
	return f.inner.Fetch(ctx, url)
}
