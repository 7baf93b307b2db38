package catalog

import (
	"regexp"
	"strings"
)

// fragmentPattern matches a capital letter followed by lowercase letters or
// digits. A lone capital, as in the "C" of "CHouse", is not a fragment.
var fragmentPattern = regexp.MustCompile(`[A-Z][a-z0-9]+`)

// Fragments returns the capitalized word fragments of name in order.
func Fragments(name string) []string {
	return fragmentPattern.FindAllString(name, -1)
}

// CamelCaseTerm joins the fragments of name with spaces:
// "SpaceStashCore" becomes "Space Stash Core".
func CamelCaseTerm(name string) string {
	return strings.Join(Fragments(name), " ")
}

// DropLastTerm is CamelCaseTerm without the final fragment:
// "SpaceStashCore" becomes "Space Stash". Installers often append a suffix
// such as "Core" to the catalog name.
//
// A name with a single fragment yields "", so "CHouse" produces no term here.
func DropLastTerm(name string) string {
	fragments := Fragments(name)
	if len(fragments) == 0 {
		return ""
	}
	return strings.Join(fragments[:len(fragments)-1], " ")
}

// SearchTerms returns the terms to try for a local name, in priority order:
// the alias (if any), the raw name, the camel-case split and the split
// without its last fragment. Empty and duplicate terms are skipped.
func SearchTerms(name, alias string) []string {
	candidates := []string{alias, name, CamelCaseTerm(name), DropLastTerm(name)}

	terms := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, term := range candidates {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}
