// Package catalogtest provides an in-process catalog for tests: search pages,
// addon detail pages and archive downloads served from httptest.
package catalogtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Paths served by Server
const (
	SearchPath   = "/search/ws-addons"
	ProjectPath  = "/ws-addons/"
	GameSegment  = "/wildstar/"
	LatestSuffix = "/files/latest"
)

// Entry is an addon known to the fake catalog.
type Entry struct {
	// Name is the display name shown in search results
	Name string
	// Slug is the project path element, e.g. "222-space-stash"
	Slug string
	// Epoch is the release date reported on the detail page
	Epoch int64
	// Archive is served from the latest-file endpoint
	Archive []byte
}

// Server is a fake catalog. Search terms are mapped to entries explicitly;
// any other term gets a no-results page.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	results  map[string]Entry
	entries  map[string]Entry
	statuses map[string]int
	requests map[string]int
}

// NewServer starts a fake catalog. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		results:  make(map[string]Entry),
		entries:  make(map[string]Entry),
		statuses: make(map[string]int),
		requests: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Add registers entry as the first result for term.
func (s *Server) Add(term string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[term] = entry
	s.entries[entry.Slug] = entry
}

// SetStatus makes every request to path answer with code.
func (s *Server) SetStatus(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = code
}

// SearchURL returns the search endpoint.
func (s *Server) SearchURL() string {
	return s.URL + SearchPath
}

// ProjectBase returns the base URL result links are resolved against.
func (s *Server) ProjectBase() string {
	return s.URL + "/"
}

// ProjectURL returns the detail page of an entry after link resolution.
func (s *Server) ProjectURL(slug string) string {
	return s.URL + ProjectPath + slug
}

// Requests returns how many requests hit path.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// TotalRequests returns the number of requests served.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.requests {
		total += n
	}
	return total
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	status, forced := s.statuses[r.URL.Path]
	s.mu.Unlock()

	if forced {
		w.WriteHeader(status)
		return
	}

	switch {
	case r.URL.Path == SearchPath:
		term := r.URL.Query().Get("search")
		s.mu.Lock()
		entry, ok := s.results[term]
		s.mu.Unlock()
		if !ok {
			fmt.Fprint(w, NoResultsPage(term))
			return
		}
		fmt.Fprint(w, SearchPage(entry.Name, ProjectPath+strings.TrimPrefix(GameSegment, "/")+entry.Slug))

	case strings.HasPrefix(r.URL.Path, ProjectPath):
		slug := strings.TrimPrefix(r.URL.Path, ProjectPath)
		archive := strings.HasSuffix(slug, LatestSuffix)
		slug = strings.TrimSuffix(slug, LatestSuffix)

		s.mu.Lock()
		entry, ok := s.entries[slug]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		if archive {
			w.Header().Set("Content-Type", "application/zip")
			w.Write(entry.Archive)
			return
		}
		fmt.Fprint(w, DetailPage(entry.Epoch))

	default:
		http.NotFound(w, r)
	}
}

// SearchPage renders a search page whose first result links to href.
func SearchPage(name, href string) string {
	return fmt.Sprintf(`<html><body>
<table class="listing">
<tr class="wildstar"><td><a href="%s">%s</a></td><td>WildStar</td></tr>
<tr class="wildstar"><td><a href="/ws-addons/wildstar/999-other">Other</a></td></tr>
</table>
</body></html>`, html.EscapeString(href), html.EscapeString(name))
}

// NoResultsPage renders a search page without matches.
func NoResultsPage(term string) string {
	return fmt.Sprintf(`<html><body>
<ul class="results"><li class="no-results">No results for "%s"</li></ul>
</body></html>`, html.EscapeString(term))
}

// DetailPage renders an addon page released at epoch.
func DetailPage(epoch int64) string {
	return fmt.Sprintf(`<html><body>
<ul class="cf-details project-details">
<li>Created: <abbr class="tip standard-date" data-epoch="1400000000">May 13, 2014</abbr></li>
<li>Last Released File: <abbr class="tip standard-date" data-epoch="%d">recently</abbr></li>
</ul>
</body></html>`, epoch)
}

// ZipArchive builds a zip file from a map of slash-separated paths to contents.
func ZipArchive(files map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
