package koreader

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/mrlokans/koreader-anki/internal/entities"
)

func newTestExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParseBookmarks(t *testing.T) {
	parsed := newTestExtractor().ParseBookmarks(context.Background(), readFixture(t, "bookmarks.epub.lua"))
	require.NotNil(t, parsed)

	assert.Equal(t, "Blue Mind: How Water Makes You Happier, More Connected and Better at What You Do", parsed.Metadata.Title)
	assert.Equal(t, "Céline Cousteau\nWallace J. Nichols", parsed.Metadata.Authors)
	assert.Equal(t, "en", parsed.Metadata.Language)

	require.Len(t, parsed.Entries, 2, "only highlighted bookmarks are kept")

	first := parsed.Entries[0]
	assert.Equal(t, "3. The Water Premium", first.Chapter)
	assert.Equal(t, "2021-02-15 14:28:25", first.Datetime)
	assert.Equal(t, "The factors that help boost Ryan Howell’s happiness for the longer term are the pursuit and attainment of personal goals and the adoption of meaningful activities. Suppose that Howell was planning", first.Notes)
	assert.Equal(t, entities.PageFromString("12"), first.Page)

	second := parsed.Entries[1]
	assert.Equal(t, "Water gives us a break from information overload.", second.Notes)
	assert.False(t, second.Page.Valid, "locator without DocFragment has no page")
}

func TestParseAnnotations(t *testing.T) {
	parsed := newTestExtractor().ParseAnnotations(context.Background(), readFixture(t, "annotations.epub.lua"))
	require.NotNil(t, parsed)

	assert.Equal(t, "Feel-good Productivity : How to Do More of What Matters to You (9781250865052)", parsed.Metadata.Title)
	assert.Equal(t, "Abdaal, Ali", parsed.Metadata.Authors)
	assert.Equal(t, "en-US", parsed.Metadata.Language)

	expected := []entities.HighlightRecord{
		{
			Chapter:  "Introduction",
			Datetime: "2024-08-30 12:31:05",
			Notes:    "when we’re in a positive mood, we tend to consider a broader range of actions, be more open to new experiences, and better integrate the information we receive",
			Page:     entities.PageFromInt(14),
		},
		{
			Chapter:  "Introduction",
			Datetime: "2024-08-30 12:31:27",
			Notes:    "feeling good boosts our creativity –",
			Page:     entities.PageFromInt(15),
		},
	}
	assert.Equal(t, expected, parsed.Entries)
}

func TestParseAnnotations_StringPagenoIsKeptVerbatim(t *testing.T) {
	raw := `return {
		["annotations"] = {
			{ ["text"] = "roman numbered preface", ["pageno"] = "xiv" },
		},
		["stats"] = { ["title"] = "T", ["authors"] = "A" },
	}`

	parsed := newTestExtractor().ParseAnnotations(context.Background(), raw)
	require.NotNil(t, parsed)
	assert.Equal(t, entities.PageFromString("xiv"), parsed.Entries[0].Page)
}

func TestExtract_FallsBackToAnnotations(t *testing.T) {
	raw := `return {
		["bookmarks"] = {
			{ ["notes"] = "in bookmark 3", ["page"] = "/body/DocFragment[3]/p" },
		},
		["annotations"] = {
			{ ["chapter"] = "One", ["datetime"] = "2024-01-01 10:00:00", ["text"] = "A kept annotation.", ["pageno"] = 3 },
		},
		["stats"] = { ["title"] = "Book", ["authors"] = "Author", ["language"] = "fr" },
	}`

	extractor := newTestExtractor()
	assert.Nil(t, extractor.ParseBookmarks(context.Background(), raw))

	parsed := extractor.Extract(context.Background(), raw)
	require.NotNil(t, parsed)
	require.Len(t, parsed.Entries, 1)
	assert.Equal(t, "A kept annotation.", parsed.Entries[0].Notes)
	assert.Equal(t, "fr", parsed.Metadata.Language)
}

func TestExtract_PrefersBookmarks(t *testing.T) {
	parsed := newTestExtractor().Extract(context.Background(), readFixture(t, "bookmarks.epub.lua"))
	require.NotNil(t, parsed)
	assert.Len(t, parsed.Entries, 2)
}

func TestExtract_NoHighlights(t *testing.T) {
	extractor := newTestExtractor()
	raw := readFixture(t, "no_highlights.epub.lua")

	assert.Nil(t, extractor.ParseBookmarks(context.Background(), raw))
	assert.Nil(t, extractor.ParseAnnotations(context.Background(), raw))
	assert.Nil(t, extractor.Extract(context.Background(), raw))
}

func TestExtract_StructuralFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not lua", raw: "this is { not lua"},
		{name: "returns a string", raw: `return "hello"`},
		{name: "returns nothing", raw: `local x = 1`},
		{name: "calls a function", raw: `return { ["bookmarks"] = os.exit() }`},
		{name: "entry is not a table", raw: `return {
			["bookmarks"] = { "oops" },
			["stats"] = { ["title"] = "T" },
		}`},
		{name: "notes has wrong type", raw: `return {
			["bookmarks"] = { { ["highlighted"] = true, ["notes"] = { 1, 2 } } },
			["stats"] = { ["title"] = "T" },
		}`},
		{name: "highlighted has wrong type", raw: `return {
			["bookmarks"] = { { ["highlighted"] = "yes", ["notes"] = "text" } },
			["stats"] = { ["title"] = "T" },
		}`},
		{name: "missing metadata", raw: `return {
			["annotations"] = { { ["text"] = "orphan highlight", ["pageno"] = 1 } },
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, newTestExtractor().Extract(context.Background(), tt.raw))
		})
	}
}

func TestExtract_DocPropsMetadata(t *testing.T) {
	raw := `return {
		["annotations"] = {
			{ ["chapter"] = "II", ["datetime"] = "2025-03-01 08:00:00", ["text"] = "Newer sidecar layout.", ["pageno"] = 42 },
		},
		["doc_props"] = { ["title"] = "Newer Book", ["authors"] = "Someone", ["language"] = "de" },
	}`

	parsed := newTestExtractor().Extract(context.Background(), raw)
	require.NotNil(t, parsed)
	assert.Equal(t, entities.BookMetadata{Title: "Newer Book", Authors: "Someone", Language: "de"}, parsed.Metadata)
}

func TestExtract_EntriesOrderedByIndex(t *testing.T) {
	raw := `return {
		["annotations"] = {
			[3] = { ["text"] = "third" },
			[1] = { ["text"] = "first" },
			[2] = { ["text"] = "second" },
		},
		["stats"] = { ["title"] = "T", ["authors"] = "A" },
	}`

	parsed := newTestExtractor().ParseAnnotations(context.Background(), raw)
	require.NotNil(t, parsed)
	assert.Equal(t, []string{"first", "second", "third"}, parsed.Texts())
}

func TestExtract_BookmarkNumericPage(t *testing.T) {
	raw := `return {
		["bookmarks"] = {
			{ ["highlighted"] = true, ["notes"] = "PDF highlight.", ["page"] = 7 },
		},
		["stats"] = { ["title"] = "Paper", ["authors"] = "Author" },
	}`

	parsed := newTestExtractor().ParseBookmarks(context.Background(), raw)
	require.NotNil(t, parsed)
	assert.Equal(t, entities.PageFromInt(7), parsed.Entries[0].Page)
}

func TestExtract_RunawayEvaluationIsBounded(t *testing.T) {
	extractor := NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)), 50*time.Millisecond)

	start := time.Now()
	assert.Nil(t, extractor.Extract(context.Background(), `while true do end`))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNumberPage(t *testing.T) {
	assert.Equal(t, entities.PageFromInt(12), numberPage(lua.LNumber(12)))
	assert.Equal(t, entities.PageFromString("12.5"), numberPage(lua.LNumber(12.5)))
}

func TestExtract_FragmentLocatorWithoutDocFragmentHasNoPage(t *testing.T) {
	raw := `return {
		["bookmarks"] = {
			{ ["highlighted"] = true, ["notes"] = "Legacy locator.", ["page"] = "#_doc_fragment_18_ c3" },
		},
		["stats"] = { ["title"] = "T", ["authors"] = "A" },
	}`

	parsed := newTestExtractor().ParseBookmarks(context.Background(), raw)
	require.NotNil(t, parsed)
	assert.False(t, parsed.Entries[0].Page.Valid)
	assert.Equal(t, "n/a", parsed.Entries[0].Page.String())
}
