package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name`,
			expected: "filename",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces",
			expected: "file name with spaces",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name  with    spaces",
			expected: "file name with spaces",
		},
		{
			name:     "removes hashtags",
			input:    "#hashtag #title",
			expected: "hashtag title",
		},
		{
			name:     "replaces square brackets",
			input:    "title [subtitle]",
			expected: "title (subtitle)",
		},
		{
			name:     "trims whitespace",
			input:    "  filename  ",
			expected: "filename",
		},
		{
			name:     "returns Untitled for empty",
			input:    "",
			expected: "Untitled",
		},
		{
			name:     "returns Untitled for only special chars",
			input:    "<>:?*",
			expected: "Untitled",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", 200),
		},
		{
			name:     "handles unicode",
			input:    "Pamiętnik znaleziony w wannie",
			expected: "Pamiętnik znaleziony w wannie",
		},
		{
			name:     "complex case",
			input:    `Book: "The Title" [Vol. 1] #Series`,
			expected: "Book The Title (Vol. 1) Series",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPackageFilename(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		author   string
		expected string
	}{
		{
			name:     "spaces become underscores",
			title:    "Blue Mind",
			author:   "Wallace J. Nichols",
			expected: "Blue_Mind_Wallace_J._Nichols.apkg",
		},
		{
			name:     "multi-line authors",
			title:    "Blue Mind",
			author:   "Céline Cousteau\nWallace J. Nichols",
			expected: "Blue_Mind_Céline_Cousteau_Wallace_J._Nichols.apkg",
		},
		{
			name:     "path separators removed",
			title:    "Either/Or",
			author:   "Kierkegaard",
			expected: "EitherOr_Kierkegaard.apkg",
		},
		{
			name:     "colon removed",
			title:    "Feel-good Productivity : How to Do More",
			author:   "Abdaal, Ali",
			expected: "Feel-good_Productivity_How_to_Do_More_Abdaal,_Ali.apkg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PackageFilename(tt.title, tt.author))
		})
	}
}

func TestSidecarBookName(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "epub sidecar",
			path:     "/mnt/onboard/Books/The Hobbit - J.R.R. Tolkien.sdr/metadata.epub.lua",
			expected: "The Hobbit - J.R.R. Tolkien",
		},
		{
			name:     "sidecar keeping book extension",
			path:     "/books/War and Peace - Leo Tolstoy.fb2.zip.sdr/metadata.fb2.lua",
			expected: "War and Peace - Leo Tolstoy",
		},
		{
			name:     "not in a sidecar directory",
			path:     "/koreader/docsettings/metadata.pdf.lua",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SidecarBookName(tt.path))
		})
	}
}

func TestSidecarTitle(t *testing.T) {
	assert.Equal(t, "The Hobbit", SidecarTitle("The Hobbit - J.R.R. Tolkien"))
	assert.Equal(t, "Untitled Notes", SidecarTitle("Untitled Notes"))
}

func TestExtractAuthorFromFilename(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		bookTitle string
		expected  string
	}{
		{
			name:      "extracts author from fb2 path",
			filename:  "/sdcard/Books/Pamiętnik znaleziony w wannie - Stanisław Lem.fb2",
			bookTitle: "Pamiętnik znaleziony w wannie",
			expected:  "Stanisław Lem",
		},
		{
			name:      "extracts author from epub",
			filename:  "/books/The Hobbit - J.R.R. Tolkien.epub",
			bookTitle: "The Hobbit",
			expected:  "J.R.R. Tolkien",
		},
		{
			name:      "handles fb2.zip extension",
			filename:  "/books/War and Peace - Leo Tolstoy.fb2.zip",
			bookTitle: "War and Peace",
			expected:  "Leo Tolstoy",
		},
		{
			name:      "extracts author from sidecar name",
			filename:  "Blue Mind - Wallace J. Nichols.sdr",
			bookTitle: "Blue Mind",
			expected:  "Wallace J. Nichols",
		},
		{
			name:      "returns empty if title not found",
			filename:  "/books/somefile.epub",
			bookTitle: "Different Title",
			expected:  "",
		},
		{
			name:      "handles no author",
			filename:  "/books/The Hobbit.epub",
			bookTitle: "The Hobbit",
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractAuthorFromFilename(tt.filename, tt.bookTitle)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeFilename_TruncatesOnRuneBoundary(t *testing.T) {
	// One ASCII byte shifts every two-byte rune so the 200-byte limit
	// falls inside a rune.
	input := "a" + strings.Repeat("Я", 150)

	result := SanitizeFilename(input)

	assert.True(t, utf8.ValidString(result))
	assert.Equal(t, "a"+strings.Repeat("Я", 99), result)
	assert.LessOrEqual(t, len(result), maxFilenameBytes)
}

func TestPackageFilename_LongCyrillicTitleStaysValidUTF8(t *testing.T) {
	name := PackageFilename(strings.Repeat("Война и мир ", 30), "Лев Толстой")

	assert.True(t, utf8.ValidString(name))
	assert.True(t, strings.HasSuffix(name, PackageExtension))
}
