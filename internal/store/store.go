// Package store persists the addon records and the install directory.
//
// The store is a single JSON document:
//
//	{
//	    "addons": {
//	        "SpaceStash": {"date": 1407000000, "name": "SpaceStash", "url": "..."}
//	    },
//	    "config": {"PATH": "/path/to/Addons"},
//	    "folders": {"SpaceStashCore": "SpaceStash"}
//	}
//
// "folders" maps installed folder names to the record they were installed
// from, for folders whose name differs from the catalog name.
//
// Keys are written in sorted order with a fixed indent so that the file diffs
// cleanly between runs. Every mutation is flushed to disk before returning.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/KalleV/WSAddonUpdater/internal/addon"
	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
	json "github.com/goccy/go-json"
)

// Error variables for store errors
var (
	// ErrStoreCorrupted is returned when the store file cannot be parsed
	ErrStoreCorrupted = errors.New("store file is corrupted")
	// ErrEmptyDirectory is returned when an empty install directory is set
	ErrEmptyDirectory = errors.New("install directory is empty")
)

// indent is the indentation used for the encoded document
const indent = "    "

// Settings holds the non-addon section of the document.
type Settings struct {
	// Path is the install directory of the addons
	Path string `json:"PATH,omitempty"`
}

// document represents the JSON structure stored on disk
type document struct {
	Addons  map[string]addon.Record `json:"addons"`
	Config  Settings                `json:"config"`
	Folders map[string]string       `json:"folders,omitempty"`
}

// Store is the durable mapping of addon name to record.
// It is safe for concurrent use.
type Store struct {
	// doc is the in-memory copy of the file
	doc document
	// path is the file path where the document is persisted
	path string
	// mu protects concurrent access to doc
	mu sync.RWMutex
	// writeFile allows injecting write failures for testing
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// Option is a functional option for configuring Store
type Option func(*Store)

// WithWriteFunc sets a custom file writer for testing
func WithWriteFunc(fn func(name string, data []byte, perm os.FileMode) error) Option {
	return func(s *Store) {
		s.writeFile = fn
	}
}

// Open loads the store from path.
// A missing, unreadable or corrupted file yields an empty default document;
// it is replaced on the next write.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		doc:       defaultDocument(),
		path:      path,
		writeFile: os.WriteFile,
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("ignoring store %s: %v", path, err)
		}
		s.doc = defaultDocument()
	}

	return s
}

func defaultDocument() document {
	return document{Addons: make(map[string]addon.Record), Folders: make(map[string]string)}
}

// load reads the document from disk
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
	}

	if doc.Addons == nil {
		doc.Addons = make(map[string]addon.Record)
	}
	if doc.Folders == nil {
		doc.Folders = make(map[string]string)
	}
	s.doc = doc
	return nil
}

// Get returns the stored record for name.
// Entries that fail validation are reported as absent.
func (s *Store) Get(name string) (addon.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUnsafe(name)
}

// Lookup returns the record an installed folder was installed from,
// falling back to a record named like the folder.
func (s *Store) Lookup(folder string) (addon.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name, ok := s.doc.Folders[addon.Normalize(folder)]; ok {
		if rec, ok := s.getUnsafe(name); ok {
			return rec, true
		}
	}
	return s.getUnsafe(folder)
}

// getUnsafe reads a record without locking.
// Caller must hold the read lock.
func (s *Store) getUnsafe(name string) (addon.Record, bool) {
	stored, exists := s.doc.Addons[addon.Normalize(name)]
	if !exists {
		return addon.Record{}, false
	}

	rec, err := addon.NewRecord(stored.Name, stored.URL, stored.Date)
	if err != nil {
		return addon.Record{}, false
	}
	return rec, true
}

// Upsert stores rec under its normalized name and flushes the document.
func (s *Store) Upsert(rec addon.Record) error {
	rec, err := addon.NewRecord(rec.Name, rec.URL, rec.Date)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Addons[rec.Name] = rec
	return s.saveUnsafe()
}

// UpsertInstalled stores rec and remembers that folder was installed from
// it, then flushes the document once.
func (s *Store) UpsertInstalled(folder string, rec addon.Record) error {
	rec, err := addon.NewRecord(rec.Name, rec.URL, rec.Date)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Addons[rec.Name] = rec
	if key := addon.Normalize(folder); key != "" && key != rec.Name {
		s.doc.Folders[key] = rec.Name
	} else {
		delete(s.doc.Folders, key)
	}
	return s.saveUnsafe()
}

// UpsertAll stores every record and flushes once.
// Nothing is written if any record is invalid.
func (s *Store) UpsertAll(recs []addon.Record) error {
	valid := make([]addon.Record, 0, len(recs))
	for _, rec := range recs {
		checked, err := addon.NewRecord(rec.Name, rec.URL, rec.Date)
		if err != nil {
			return err
		}
		valid = append(valid, checked)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range valid {
		s.doc.Addons[rec.Name] = rec
	}
	return s.saveUnsafe()
}

// Names returns the stored addon names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.doc.Addons))
	for name := range s.doc.Addons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns a copy of all stored records keyed by name.
func (s *Store) Records() map[string]addon.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]addon.Record, len(s.doc.Addons))
	for name, rec := range s.doc.Addons {
		out[name] = rec
	}
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Addons)
}

// Prune removes every record that no folder in keep refers to, either by
// name or through the folder mapping, and flushes the document. Mappings of
// folders not in keep are dropped too. Names are normalized before
// comparison. It returns the removed record names in sorted order.
func (s *Store) Prune(keep []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folders := normalizedSet(keep)
	removed := s.staleUnsafe(folders)

	changed := len(removed) > 0
	for _, name := range removed {
		delete(s.doc.Addons, name)
	}
	for folder := range s.doc.Folders {
		if _, ok := folders[folder]; !ok {
			delete(s.doc.Folders, folder)
			changed = true
		}
	}

	if !changed {
		return nil, nil
	}
	return removed, s.saveUnsafe()
}

// Stale returns the record names Prune would remove for folders, sorted.
func (s *Store) Stale(folders []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staleUnsafe(normalizedSet(folders))
}

// staleUnsafe lists records referenced by no folder.
// Caller must hold the lock.
func (s *Store) staleUnsafe(folders map[string]struct{}) []string {
	kept := make(map[string]struct{}, len(folders))
	for folder := range folders {
		kept[folder] = struct{}{}
		if name, ok := s.doc.Folders[folder]; ok {
			kept[name] = struct{}{}
		}
	}

	var stale []string
	for name := range s.doc.Addons {
		if _, ok := kept[name]; !ok {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	return stale
}

func normalizedSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[addon.Normalize(name)] = struct{}{}
	}
	return set
}

// InstallDirectory returns the configured install directory, or "".
func (s *Store) InstallDirectory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Config.Path
}

// SetInstallDirectory records the install directory and flushes the document.
func (s *Store) SetInstallDirectory(dir string) error {
	if dir == "" {
		return ErrEmptyDirectory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Config.Path = dir
	return s.saveUnsafe()
}

// saveUnsafe persists the document without locking.
// Caller must hold the write lock.
func (s *Store) saveUnsafe() error {
	data, err := Encode(s.doc.Addons, s.doc.Folders, s.doc.Config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := s.writeFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename store file: %w", err)
	}

	return nil
}

// Encode renders the document in its on-disk form.
// Map keys are sorted, so equal contents always encode to equal bytes.
func Encode(addons map[string]addon.Record, folders map[string]string, cfg Settings) ([]byte, error) {
	if addons == nil {
		addons = map[string]addon.Record{}
	}
	data, err := json.MarshalIndent(document{Addons: addons, Config: cfg, Folders: folders}, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal store: %w", err)
	}
	return append(data, '\n'), nil
}
