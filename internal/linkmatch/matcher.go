// Package linkmatch scans fetched HTML for an anchor pointing at a target URL.
package linkmatch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkforge/linkwatch/internal/domain"
	"github.com/linkforge/linkwatch/internal/urlutil"
)

// Match is the outcome of scanning a source page for a link to a target.
type Match struct {
	Found      bool
	LinkType   string // dofollow, nofollow, or none
	AnchorText string
}

// FindLink parses html and reports whether any anchor resolves to targetURL.
// Relative hrefs are resolved against sourceURL. The first matching anchor
// wins; later duplicates are not considered. Individual malformed hrefs are
// skipped rather than failing the whole scan.
func FindLink(html []byte, sourceURL, targetURL string) (Match, error) {
	notFound := Match{LinkType: domain.LinkTypeNone}

	target, err := urlutil.Normalize(targetURL)
	if err != nil {
		return notFound, fmt.Errorf("normalize target: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return notFound, fmt.Errorf("parse html: %w", err)
	}

	var match Match

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")

		resolved, resolveErr := urlutil.ResolveRef(sourceURL, href)
		if resolveErr != nil {
			return true // skip malformed href, keep scanning
		}

		normalized, normErr := urlutil.Normalize(resolved)
		if normErr != nil || normalized != target {
			return true
		}

		match = Match{
			Found:      true,
			LinkType:   classifyRel(sel),
			AnchorText: strings.TrimSpace(sel.Text()),
		}

		return false // first match wins
	})

	if !match.Found {
		return notFound, nil
	}

	return match, nil
}

// classifyRel inspects the rel attribute for the nofollow token,
// case-insensitively. Presence means nofollow, absence means dofollow.
func classifyRel(sel *goquery.Selection) string {
	rel, _ := sel.Attr("rel")

	for _, tok := range strings.Fields(strings.ToLower(rel)) {
		if tok == "nofollow" {
			return domain.LinkTypeNofollow
		}
	}

	return domain.LinkTypeDofollow
}
