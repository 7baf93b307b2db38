package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/KalleV/WSAddonUpdater/internal/addon"
)

// ErrInvalidAliases is returned when aliases.toml cannot be parsed
var ErrInvalidAliases = errors.New("invalid aliases file")

// Aliases maps a local folder name to the search term to use on the catalog,
// for folders whose name has nothing in common with the catalog entry:
//
//	[aliases]
//	TBGO = "TB-Graphics Options"
type Aliases map[string]string

// aliasesFile is the internal representation matching the TOML structure
type aliasesFile struct {
	Aliases map[string]string `toml:"aliases"`
}

// LoadAliases reads an aliases file. A missing file yields no aliases.
func LoadAliases(path string) (Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Aliases{}, nil
		}
		return nil, fmt.Errorf("failed to read aliases: %w", err)
	}

	var file aliasesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAliases, err)
	}

	aliases := make(Aliases, len(file.Aliases))
	for name, term := range file.Aliases {
		aliases[name] = term
	}
	return aliases, nil
}

// Lookup returns the alias for a local name. Exact keys win over keys that
// only match after normalization.
func (a Aliases) Lookup(name string) (string, bool) {
	if term, ok := a[name]; ok {
		return term, true
	}
	normalized := addon.Normalize(name)
	for key, term := range a {
		if addon.Normalize(key) == normalized {
			return term, true
		}
	}
	return "", false
}
