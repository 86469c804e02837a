// Package domain defines core domain types, constants, and validation for the
// DocPilot ingestion pipeline. It acts as the validation gate at pipeline entry points.
package domain

import "time"

// Document is a scraped documentation page, immutable once handed to the
// chunking engine. A document is uniquely identified by (source, url).
type Document struct {
	Content   string    `json:"content"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	DocType   string    `json:"doc_type,omitempty"`
	ScrapedAt time.Time `json:"scraped_at,omitzero"`
}

// ID returns the logical document identity used for deduplication and
// deterministic chunk id derivation.
func (d Document) ID() string {
	return d.Source + "::" + d.URL
}

// DocTypeGeneral is the fallback doc_type for documents that omit one.
const DocTypeGeneral = "general"

// KnownDocTypes enumerates the documentation corpora we currently scrape.
// Unknown types are accepted and passed through; the set only drives
// reporting breakdowns.
var KnownDocTypes = map[string]bool{
	"django":       true,
	"react":        true,
	"nextjs":       true,
	"python":       true,
	DocTypeGeneral: true,
}
