// Package apkg writes and reads Anki deck packages: a zip archive holding
// a collection.anki2 SQLite database and a media index.
package apkg

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/koreader-anki/internal/cards"
	"github.com/mrlokans/koreader-anki/internal/utils"
)

const (
	collectionFile = "collection.anki2"
	mediaFile      = "media"
)

// Writer serializes decks to .apkg files.
type Writer struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger, now: time.Now}
}

// PackagePath resolves where deck is written. A directory target gets the
// "<title>_<author>.apkg" filename.
func PackagePath(target string, deck *cards.Deck) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return filepath.Join(target, utils.PackageFilename(deck.Book.Title, deck.Book.Authors))
	}
	return target
}

// Write stores deck at path and returns the file written.
func (w *Writer) Write(deck *cards.Deck, path string) (string, error) {
	path = PackagePath(path, deck)

	tempDir, err := os.MkdirTemp("", "koreader-anki-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, collectionFile)
	if err := w.writeCollection(deck, dbPath); err != nil {
		return "", err
	}

	if err := writeArchive(dbPath, path); err != nil {
		return "", err
	}

	w.logger.Info("Wrote Anki package", "path", path, "deck", deck.Name, "notes", len(deck.Notes))
	return path, nil
}

func (w *Writer) writeCollection(deck *cards.Deck, dbPath string) error {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access collection: %w", err)
	}
	defer sqlDB.Close()

	now := w.now()

	col, err := newCollection(deck.ID, deck.Name, now)
	if err != nil {
		return err
	}

	notes, cardRows := deckRows(deck, now)

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(collectionSchema).Error; err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if err := tx.Create(&col).Error; err != nil {
			return fmt.Errorf("failed to write collection: %w", err)
		}
		if len(notes) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(notes, 100).Error; err != nil {
			return fmt.Errorf("failed to write notes: %w", err)
		}
		if err := tx.CreateInBatches(cardRows, 100).Error; err != nil {
			return fmt.Errorf("failed to write cards: %w", err)
		}
		return nil
	})
}

// deckRows builds one note and one card per deck note. Ids count up from
// the current millisecond the way Anki allocates them.
func deckRows(deck *cards.Deck, now time.Time) ([]noteRow, []cardRow) {
	base := now.UnixMilli()
	mod := now.Unix()

	notes := make([]noteRow, 0, len(deck.Notes))
	cardRows := make([]cardRow, 0, len(deck.Notes))

	for i, note := range deck.Notes {
		noteID := base + int64(i)
		notes = append(notes, noteRow{
			ID:    noteID,
			GUID:  NoteGUID(note.Front, note.Back),
			Mid:   ClozeModelID,
			Mod:   mod,
			Usn:   -1,
			Tags:  "",
			Flds:  note.Front + FieldSeparator + note.Back,
			Sfld:  StripHTML(note.Front),
			Csum:  fieldChecksum(note.Front),
			Flags: 0,
			Data:  "",
		})
		cardRows = append(cardRows, cardRow{
			ID:  base + int64(len(deck.Notes)) + int64(i),
			Nid: noteID,
			Did: deck.ID,
			Ord: 0,
			Mod: mod,
			Usn: -1,
			Due: int64(i + 1),
		})
	}

	return notes, cardRows
}

// writeArchive zips the collection next to an empty media index, writing
// through a temp file so a failed run never leaves a truncated package.
func writeArchive(dbPath, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".apkg-*")
	if err != nil {
		return fmt.Errorf("failed to create package file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set package permissions: %w", err)
	}

	zw := zip.NewWriter(tmp)
	if err := addFile(zw, collectionFile, dbPath); err != nil {
		tmp.Close()
		return err
	}

	media, err := zw.Create(mediaFile)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to add media index: %w", err)
	}
	if _, err := io.WriteString(media, "{}"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to add media index: %w", err)
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to finish package: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close package: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move package into place: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer in.Close()

	out, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	return nil
}
