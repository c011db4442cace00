// Package koreader extracts highlights from KOReader sidecar files
// (metadata.<ext>.lua).
//
// KOReader has stored highlights in two incompatible shapes over time: a
// "bookmarks" table where highlights are flagged bookmarks, and a newer
// "annotations" table. Each shape is handled by its own variant; the
// Extractor tries bookmarks first and falls back to annotations.
package koreader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/mrlokans/koreader-anki/internal/entities"
)

// DefaultEvalTimeout bounds the evaluation of one sidecar file.
const DefaultEvalTimeout = 5 * time.Second

// Matches the spine index in an EPUB locator such as
// "/body/DocFragment[12]/body/div/p[3]/text().0".
var docFragmentPattern = regexp.MustCompile(`DocFragment\[(\d+)\]`)

// Extractor turns raw sidecar text into a ParsedSource.
type Extractor struct {
	logger      *slog.Logger
	evalTimeout time.Duration
}

func NewExtractor(logger *slog.Logger, evalTimeout time.Duration) *Extractor {
	if evalTimeout <= 0 {
		evalTimeout = DefaultEvalTimeout
	}
	return &Extractor{logger: logger, evalTimeout: evalTimeout}
}

// Extract returns the highlights found in raw, or nil when neither the
// bookmarks nor the annotations variant yields any.
func (e *Extractor) Extract(ctx context.Context, raw string) *entities.ParsedSource {
	if parsed := e.ParseBookmarks(ctx, raw); parsed != nil {
		return parsed
	}
	e.logger.Debug("No highlights in bookmarks table, trying annotations")
	return e.ParseAnnotations(ctx, raw)
}

// ParseBookmarks reads the legacy bookmarks table. Only entries flagged
// as highlighted are kept. Returns nil on any structural problem or when
// no entry qualifies.
func (e *Extractor) ParseBookmarks(ctx context.Context, raw string) *entities.ParsedSource {
	parsed, err := e.parse(ctx, raw, "bookmarks", bookmarkRecord)
	if err != nil {
		e.logger.Debug("Bookmarks variant failed", "error", err)
		return nil
	}
	return parsed
}

// ParseAnnotations reads the annotations table. Entries with text are
// kept and pageno is copied verbatim. Returns nil on any structural
// problem or when no entry qualifies.
func (e *Extractor) ParseAnnotations(ctx context.Context, raw string) *entities.ParsedSource {
	parsed, err := e.parse(ctx, raw, "annotations", annotationRecord)
	if err != nil {
		e.logger.Debug("Annotations variant failed", "error", err)
		return nil
	}
	return parsed
}

// recordFunc converts one entry table. ok is false when the entry is
// well-formed but not a highlight.
type recordFunc func(entry *lua.LTable) (record entities.HighlightRecord, ok bool, err error)

var errNoHighlights = errors.New("no highlighted entries")

func (e *Extractor) parse(ctx context.Context, raw, tableName string, convert recordFunc) (*entities.ParsedSource, error) {
	root, err := evalSidecar(ctx, raw, e.evalTimeout)
	if err != nil {
		return nil, err
	}

	list, err := tableField(root, tableName)
	if err != nil {
		return nil, err
	}

	entries, err := entryTables(list)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tableName, err)
	}

	var records []entities.HighlightRecord
	for i, entry := range entries {
		record, ok, err := convert(entry)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", tableName, i+1, err)
		}
		if ok {
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil, errNoHighlights
	}

	metadata, err := bookMetadata(root)
	if err != nil {
		return nil, err
	}

	return &entities.ParsedSource{Metadata: metadata, Entries: records}, nil
}

func bookmarkRecord(entry *lua.LTable) (entities.HighlightRecord, bool, error) {
	highlighted, err := boolField(entry, "highlighted")
	if err != nil || !highlighted {
		return entities.HighlightRecord{}, false, err
	}

	fields, err := stringFields(entry, "chapter", "datetime", "notes")
	if err != nil {
		return entities.HighlightRecord{}, false, err
	}
	if fields[2] == "" {
		return entities.HighlightRecord{}, false, nil
	}

	page, err := bookmarkPage(entry.RawGetString("page"))
	if err != nil {
		return entities.HighlightRecord{}, false, err
	}

	return entities.HighlightRecord{
		Chapter:  fields[0],
		Datetime: fields[1],
		Notes:    fields[2],
		Page:     page,
	}, true, nil
}

func annotationRecord(entry *lua.LTable) (entities.HighlightRecord, bool, error) {
	fields, err := stringFields(entry, "chapter", "datetime", "text")
	if err != nil {
		return entities.HighlightRecord{}, false, err
	}
	if fields[2] == "" {
		return entities.HighlightRecord{}, false, nil
	}

	var page entities.Page
	switch v := entry.RawGetString("pageno").(type) {
	case lua.LNumber:
		page = numberPage(v)
	case lua.LString:
		page = entities.PageFromString(string(v))
	default:
		if v != lua.LNil {
			return entities.HighlightRecord{}, false, fmt.Errorf("field \"pageno\" is %s", v.Type())
		}
	}

	return entities.HighlightRecord{
		Chapter:  fields[0],
		Datetime: fields[1],
		Notes:    fields[2],
		Page:     page,
	}, true, nil
}

// bookmarkPage derives the page from a bookmark locator. EPUB locators
// yield their DocFragment index, PDF bookmarks carry a plain number.
func bookmarkPage(v lua.LValue) (entities.Page, error) {
	switch page := v.(type) {
	case lua.LString:
		match := docFragmentPattern.FindStringSubmatch(string(page))
		if match == nil {
			return entities.Page{}, nil
		}
		return entities.PageFromString(match[1]), nil
	case lua.LNumber:
		return numberPage(page), nil
	default:
		if v == lua.LNil {
			return entities.Page{}, nil
		}
		return entities.Page{}, fmt.Errorf("field \"page\" is %s", v.Type())
	}
}

// numberPage keeps whole page numbers in decimal form and any other
// number as Lua prints it.
func numberPage(n lua.LNumber) entities.Page {
	if f := float64(n); f == math.Trunc(f) {
		return entities.PageFromInt(int(f))
	}
	return entities.PageFromString(n.String())
}

// bookMetadata reads title, authors and language from "stats", falling
// back to "doc_props" used by newer KOReader releases.
func bookMetadata(root *lua.LTable) (entities.BookMetadata, error) {
	props, err := tableField(root, "stats")
	if err != nil {
		var fallbackErr error
		props, fallbackErr = tableField(root, "doc_props")
		if fallbackErr != nil {
			return entities.BookMetadata{}, fmt.Errorf("book metadata: %w", err)
		}
	}

	fields, err := stringFields(props, "title", "authors", "language")
	if err != nil {
		return entities.BookMetadata{}, fmt.Errorf("book metadata: %w", err)
	}

	return entities.BookMetadata{
		Title:    fields[0],
		Authors:  fields[1],
		Language: fields[2],
	}, nil
}

func stringFields(tbl *lua.LTable, keys ...string) ([]string, error) {
	values := make([]string, len(keys))
	for i, key := range keys {
		v, err := stringField(tbl, key)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
