package addon

import (
	"errors"
	"regexp"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var canonicalPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// genFolderName generates folder names the way installers produce them:
// letters and digits mixed with separators and punctuation.
func genFolderName() gopter.Gen {
	return gen.RegexMatch(`^[A-Za-z][A-Za-z0-9 _\-.']{0,24}$`)
}

// genPunctuation generates names made only of non-alphanumeric characters
func genPunctuation() gopter.Gen {
	return gen.RegexMatch(`^[ _\-.!@#$%&*()+=:;,/'"]{1,20}$`)
}

// =============================================================================
// Property-Based Tests
// =============================================================================

func TestNormalizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Normalize strips names without alphanumerics to empty", prop.ForAll(
		func(name string) bool {
			if Normalize(name) != "" {
				return false
			}
			_, err := NewRecord(name, "http://example.com/a", 100)
			return errors.Is(err, ErrEmptyName)
		},
		genPunctuation(),
	))

	properties.Property("Normalize is idempotent", prop.ForAll(
		func(name string) bool {
			once := Normalize(name)
			return Normalize(once) == once
		},
		genFolderName(),
	))

	properties.Property("Normalized names contain only letters and digits", prop.ForAll(
		func(name string) bool {
			return canonicalPattern.MatchString(Normalize(name))
		},
		genFolderName(),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Unit Tests
// =============================================================================

func TestNewRecord(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		url     string
		date    int64
		want    string
		wantErr error
	}{
		{"plain", "SpaceStash", "http://x/space", 10, "SpaceStash", nil},
		{"strips separators", " TB-Graphics Options ", "http://x/tb", 10, "TBGraphicsOptions", nil},
		{"empty name", "---", "http://x/a", 10, "", ErrEmptyName},
		{"empty url", "Foo", "", 10, "", ErrEmptyURL},
		{"zero date", "Foo", "http://x/foo", 0, "", ErrMissingDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRecord(tt.input, tt.url, tt.date)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewRecord() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRecord() unexpected error: %v", err)
			}
			if rec.Name != tt.want {
				t.Errorf("Name = %q, want %q", rec.Name, tt.want)
			}
			if rec.URL != tt.url || rec.Date != tt.date {
				t.Errorf("got %v, url/date not preserved", rec)
			}
		})
	}
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"name":"Bar","url":"http://x/bar","date":100}`))
	if err != nil {
		t.Fatalf("ParseRecord() error: %v", err)
	}
	if rec.Name != "Bar" || rec.URL != "http://x/bar" || rec.Date != 100 {
		t.Errorf("ParseRecord() = %v", rec)
	}

	if _, err := ParseRecord([]byte(`{"name":`)); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}
	if _, err := ParseRecord([]byte(`{"name":"Bar","url":"http://x/bar"}`)); !errors.Is(err, ErrMissingDate) {
		t.Errorf("expected ErrMissingDate, got %v", err)
	}
}

func TestDownloadURL(t *testing.T) {
	rec := Record{Name: "Bar", URL: "http://x/bar", Date: 1}
	if got := rec.DownloadURL("/files/latest"); got != "http://x/bar/files/latest" {
		t.Errorf("DownloadURL() = %q", got)
	}
}
