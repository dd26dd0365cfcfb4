package textproc

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Entities holds typed named entities extracted from a document.
// Each slice is deduplicated preserving first-occurrence order.
type Entities struct {
	Organizations []string
	People        []string
	Locations     []string
	Products      []string
	Amounts       []string
}

var (
	// Capitalized phrase ending in a corporate suffix, e.g. "Acme Labs Inc".
	orgRe = regexp.MustCompile(`\b(?:[A-Z][\w-]*\s)+(?:Inc|Corp|Corporation|LLC|Ltd|Labs|Technologies|Systems|Software|Ventures|Capital|Partners)\b\.?`)

	// Inner-capitalized product style names, e.g. "DataFlow", "OpenMetrics".
	productRe = regexp.MustCompile(`\b[A-Z][a-z0-9]+[A-Z][A-Za-z0-9]+\b`)

	// Monetary amounts and spelled-out magnitudes, e.g. "25 million", "3.5M".
	amountRe = regexp.MustCompile(`\b\d[\d,]*(?:\.\d+)?\s?(?:million|billion|thousand|M|B|K)?\b`)
)

// ExtractEntities buckets named entities by type. People and locations come
// from the statistical recognizer; organizations, products and amounts are
// matched by pattern since the recognizer does not label those types.
func ExtractEntities(doc *prose.Document, text string) Entities {
	var e Entities

	for _, ent := range doc.Entities() {
		switch ent.Label {
		case "PERSON":
			e.People = append(e.People, ent.Text)
		case "GPE":
			e.Locations = append(e.Locations, ent.Text)
		}
	}

	for _, m := range orgRe.FindAllString(text, -1) {
		e.Organizations = append(e.Organizations, strings.TrimSpace(m))
	}

	for _, m := range productRe.FindAllString(text, -1) {
		e.Products = append(e.Products, m)
	}

	for _, m := range amountRe.FindAllString(text, -1) {
		e.Amounts = append(e.Amounts, strings.TrimSpace(m))
	}

	e.Organizations = dedupOrdered(e.Organizations)
	e.People = dedupOrdered(e.People)
	e.Locations = dedupOrdered(e.Locations)
	e.Products = dedupOrdered(e.Products)
	e.Amounts = dedupOrdered(e.Amounts)

	return e
}

// dedupOrdered removes duplicate strings preserving first-occurrence order.
func dedupOrdered(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
