package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// Error variables for page parsing errors
var (
	// ErrNoResults is returned when a search page reports no matches
	ErrNoResults = errors.New("no results")
	// ErrIncompleteEntry is returned when a page lacks a name, link or release date
	ErrIncompleteEntry = errors.New("incomplete catalog entry")
)

const (
	// noResultsSelector locates the "no results" sentinel on a search page
	noResultsSelector = "li.no-results"
	// noResultsText is the sentinel text inside the no-results item
	noResultsText = "No results for"
	// resultLinkSelector locates result links inside addon rows
	resultLinkSelector = "tr.wildstar a"

	// releaseItemXPath locates the details item carrying the release date
	releaseItemXPath = `//ul[contains(concat(' ', normalize-space(@class), ' '), ' cf-details ')]//li[contains(., 'Last Released File')]`
	// epochXPath locates the time element inside the release item
	epochXPath = `.//*[self::abbr or self::time][@data-epoch]`
)

// SearchResult is the first result row of a search page.
type SearchResult struct {
	// Name is the display name as shown on the catalog
	Name string
	// Href is the link to the addon page, usually relative
	Href string
}

// ParseSearchPage extracts the first result row from a search page.
// Returns ErrNoResults if the page carries the no-results sentinel or no
// result rows.
func ParseSearchPage(content []byte) (SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if strings.Contains(doc.Find(noResultsSelector).Text(), noResultsText) {
		return SearchResult{}, ErrNoResults
	}

	link := doc.Find(resultLinkSelector).First()
	if link.Length() == 0 {
		return SearchResult{}, ErrNoResults
	}

	result := SearchResult{Name: strings.TrimSpace(link.Text())}
	result.Href, _ = link.Attr("href")
	result.Href = strings.TrimSpace(result.Href)

	if result.Name == "" || result.Href == "" {
		return result, fmt.Errorf("%w: result row without name or link", ErrIncompleteEntry)
	}
	return result, nil
}

// ParseReleaseEpoch reads the "Last Released File" timestamp from an addon
// detail page, in epoch seconds.
func ParseReleaseEpoch(content []byte) (int64, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	items, err := htmlquery.QueryAll(doc, releaseItemXPath)
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		node, err := htmlquery.Query(item, epochXPath)
		if err != nil {
			return 0, err
		}
		if node == nil {
			continue
		}

		raw := strings.TrimSpace(htmlquery.SelectAttr(node, "data-epoch"))
		epoch, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || epoch <= 0 {
			continue
		}
		return epoch, nil
	}

	return 0, fmt.Errorf("%w: no release date on page", ErrIncompleteEntry)
}
