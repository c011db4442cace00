package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// PackageExtension is the file extension of Anki deck packages.
const PackageExtension = ".apkg"

// maxFilenameBytes bounds a sanitized name, leaving room for an extension.
const maxFilenameBytes = 200

// sidecarSuffix marks KOReader's per-book settings directory.
const sidecarSuffix = ".sdr"

// SanitizeFilename removes characters that are invalid in filenames on
// common filesystems and normalizes whitespace.
func SanitizeFilename(filename string) string {
	// Remove invalid filename characters
	filename = invalidFilenameChars.ReplaceAllString(filename, "")

	// Replace newlines/tabs with spaces
	filename = whitespaceChars.ReplaceAllString(filename, " ")

	// Collapse multiple spaces
	filename = multipleSpaces.ReplaceAllString(filename, " ")

	// Trim whitespace
	filename = strings.TrimSpace(filename)

	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")

	// Limit length (most filesystems support 255, but leave room for extension)
	if len(filename) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(filename[cut]) {
			cut--
		}
		filename = strings.TrimSpace(filename[:cut])
	}

	// Ensure it's not empty
	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// PackageFilename builds "<title>_<author>.apkg" with spaces turned into
// underscores. Multi-line author lists end up on one line.
func PackageFilename(title, author string) string {
	name := SanitizeFilename(title + "_" + author)
	return strings.ReplaceAll(name, " ", "_") + PackageExtension
}

// KnownBookExtensions contains file extensions commonly used for e-books
var KnownBookExtensions = []string{
	".fb2.zip",
	".fb2",
	".epub",
	".pdf",
	".txt",
	".tar.gz",
	".docx",
	".doc",
	".mobi",
	".azw3",
	".azw",
	".djvu",
	".cbz",
}

// SidecarBookName returns the book name KOReader encoded in the sidecar
// directory holding metadataPath ("Title - Author.sdr/metadata.epub.lua").
// It is empty when the file does not live in a sidecar directory.
func SidecarBookName(metadataPath string) string {
	dir := filepath.Base(filepath.Dir(metadataPath))
	if !strings.HasSuffix(dir, sidecarSuffix) {
		return ""
	}

	name := strings.TrimSuffix(dir, sidecarSuffix)
	for _, ext := range KnownBookExtensions {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.TrimSpace(name)
}

// SidecarTitle returns the title part of a "Title - Author" book name.
func SidecarTitle(bookName string) string {
	if i := strings.LastIndex(bookName, " - "); i > 0 {
		return strings.TrimSpace(bookName[:i])
	}
	return bookName
}

// ExtractAuthorFromFilename attempts to extract an author name from a book
// file or sidecar name stored as "Title - Author.extension".
func ExtractAuthorFromFilename(filename, bookTitle string) string {
	// Find where the title appears in the filename
	titlePos := strings.LastIndex(filename, bookTitle)
	if titlePos == -1 {
		return ""
	}

	// Get everything after the title
	possibleAuthor := filename[titlePos+len(bookTitle):]

	possibleAuthor = strings.TrimSuffix(possibleAuthor, sidecarSuffix)
	for _, ext := range KnownBookExtensions {
		possibleAuthor = strings.TrimSuffix(possibleAuthor, ext)
	}

	// Clean up non-alphanumeric characters from beginning and end
	possibleAuthor = strings.TrimFunc(possibleAuthor, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r >= 0x80) // Keep unicode letters
	})

	// Also try common separators
	possibleAuthor = strings.TrimPrefix(possibleAuthor, " - ")
	possibleAuthor = strings.TrimPrefix(possibleAuthor, "-")
	possibleAuthor = strings.TrimSpace(possibleAuthor)

	return possibleAuthor
}
