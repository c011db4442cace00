package entities

import "strconv"

// Page is a highlight position as stored by the reader. KOReader writes
// either a page number (PDF, annotations) or a string locator (EPUB).
type Page struct {
	Raw   string
	Valid bool
}

// PageFromString returns a valid page holding s verbatim.
func PageFromString(s string) Page {
	return Page{Raw: s, Valid: true}
}

// PageFromInt returns a valid page holding the decimal form of n.
func PageFromInt(n int) Page {
	return Page{Raw: strconv.Itoa(n), Valid: true}
}

func (p Page) String() string {
	if !p.Valid {
		return "n/a"
	}
	return p.Raw
}

// HighlightRecord is a single highlighted passage extracted from a
// KOReader sidecar file. Notes is never empty.
type HighlightRecord struct {
	Chapter  string
	Datetime string
	Notes    string
	Page     Page
}

// BookMetadata describes the book a sidecar file belongs to.
type BookMetadata struct {
	Title string
	// Authors holds one author per line.
	Authors  string
	Language string
}

// ParsedSource is everything extracted from one sidecar file.
type ParsedSource struct {
	Metadata BookMetadata
	Entries  []HighlightRecord
}

// Texts returns the highlight texts in record order.
func (s *ParsedSource) Texts() []string {
	texts := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		texts = append(texts, e.Notes)
	}
	return texts
}
