// Package addon defines the addon record shared by the catalog resolver,
// the update pipeline and the persistent store.
package addon

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Error variables for record validation
var (
	// ErrEmptyName is returned when the name is empty after normalization
	ErrEmptyName = errors.New("addon name is empty")
	// ErrEmptyURL is returned when the source URL is missing
	ErrEmptyURL = errors.New("addon url is empty")
	// ErrMissingDate is returned when the release timestamp is zero or negative
	ErrMissingDate = errors.New("addon release date is missing")
	// ErrMalformedRecord is returned when a stored record cannot be decoded
	ErrMalformedRecord = errors.New("malformed addon record")
)

// nonAlphanumeric matches every character stripped by Normalize
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Normalize strips everything except ASCII letters and digits.
// The result is the canonical name used to join local folders,
// catalog entries and stored records.
func Normalize(name string) string {
	return nonAlphanumeric.ReplaceAllString(strings.TrimSpace(name), "")
}

// Record is a catalog entry for one addon: where it comes from and when its
// latest file was released. The same shape is used for freshly resolved
// entries and for persisted ones.
//
// Fields are declared in sorted key order so the encoded form is stable.
type Record struct {
	// Date is the release timestamp of the latest file, in epoch seconds
	Date int64 `json:"date"`
	// Name is the normalized addon name
	Name string `json:"name"`
	// URL is the catalog project page of the addon
	URL string `json:"url"`
}

// NewRecord validates its inputs and builds a Record with a normalized name.
func NewRecord(name, url string, date int64) (Record, error) {
	normalized := Normalize(name)
	if normalized == "" {
		return Record{}, fmt.Errorf("%w: %q", ErrEmptyName, name)
	}
	if strings.TrimSpace(url) == "" {
		return Record{}, fmt.Errorf("%s: %w", normalized, ErrEmptyURL)
	}
	if date <= 0 {
		return Record{}, fmt.Errorf("%s: %w", normalized, ErrMissingDate)
	}
	return Record{Name: normalized, URL: url, Date: date}, nil
}

// ParseRecord decodes a stored JSON object into a validated Record.
func ParseRecord(data []byte) (Record, error) {
	var raw Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return NewRecord(raw.Name, raw.URL, raw.Date)
}

// Released returns the release timestamp as a time value.
func (r Record) Released() time.Time {
	return time.Unix(r.Date, 0)
}

// DownloadURL returns the archive location of the latest file.
func (r Record) DownloadURL(suffix string) string {
	return r.URL + suffix
}

func (r Record) String() string {
	return fmt.Sprintf("%s => (%s, %d)", r.Name, r.URL, r.Date)
}
