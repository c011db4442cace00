// Package cards turns highlight records into cloze notes and collects them
// into per-book decks.
package cards

import (
	"fmt"
	"strings"

	"github.com/mrlokans/koreader-anki/internal/entities"
)

// Note holds the two fields of a cloze note: the clozed text with its
// header, and the extra shown on the back.
type Note struct {
	Front string
	Back  string
}

// DisplayName renders a title or author the way it appears on cards.
func DisplayName(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// Header is the book and location banner above the highlight text.
func Header(meta entities.BookMetadata, record entities.HighlightRecord) string {
	title := fmt.Sprintf("<b style='font-size: 24px;'>%s - %s</b><br><br>",
		DisplayName(meta.Title), DisplayName(meta.Authors))
	location := fmt.Sprintf("Chapter: %s - Page: %s", record.Chapter, record.Page)
	return fmt.Sprintf("<span style='font-size: 14px;'>%s%s</span><hr>", title, location)
}

// Back shows the highlight timestamp in the corner of the answer side.
func Back(record entities.HighlightRecord) string {
	return fmt.Sprintf("<span style='color: lightgrey; font-size: small; font-style: italic; float: right;'>%s</span>", record.Datetime)
}
