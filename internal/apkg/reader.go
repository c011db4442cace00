package apkg

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Package is the content of an .apkg file as seen by a reader.
type Package struct {
	Path  string     `yaml:"path"`
	Decks []DeckInfo `yaml:"decks"`
	Notes []NoteInfo `yaml:"notes"`
	Cards int        `yaml:"cards"`
	Media string     `yaml:"media"`
}

type DeckInfo struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type NoteInfo struct {
	ID     int64    `yaml:"id"`
	GUID   string   `yaml:"guid"`
	Model  int64    `yaml:"model"`
	Fields []string `yaml:"-"`
	Text   string   `yaml:"text"`
	Extra  string   `yaml:"extra"`
	Cards  []Card   `yaml:"cards"`
}

type Card struct {
	ID   int64 `yaml:"id"`
	Deck int64 `yaml:"deck"`
	Ord  int   `yaml:"ord"`
}

// Read opens an .apkg file and loads its decks, notes and cards.
func Read(path string) (*Package, error) {
	tempDir, err := os.MkdirTemp("", "koreader-anki-read-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	zipReader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open package: %w", err)
	}
	defer zipReader.Close()

	pkg := &Package{Path: path}
	dbPath := filepath.Join(tempDir, collectionFile)
	found := false

	for _, file := range zipReader.File {
		switch file.Name {
		case collectionFile:
			if err := extractZipFile(file, dbPath); err != nil {
				return nil, fmt.Errorf("failed to extract collection: %w", err)
			}
			found = true
		case mediaFile:
			media, err := readZipFile(file)
			if err != nil {
				return nil, fmt.Errorf("failed to read media index: %w", err)
			}
			pkg.Media = media
		}
	}
	if !found {
		return nil, fmt.Errorf("package has no %s", collectionFile)
	}

	if err := pkg.load(dbPath); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (p *Package) load(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var decksJSON string
	if err := db.QueryRow(`SELECT decks FROM col LIMIT 1`).Scan(&decksJSON); err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}
	if p.Decks, err = parseDecks(decksJSON); err != nil {
		return err
	}

	cardsByNote, total, err := loadCards(db)
	if err != nil {
		return err
	}
	p.Cards = total

	rows, err := db.Query(`SELECT id, guid, mid, flds FROM notes ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var note NoteInfo
		var flds string
		if err := rows.Scan(&note.ID, &note.GUID, &note.Model, &flds); err != nil {
			return fmt.Errorf("failed to scan note: %w", err)
		}

		note.Fields = strings.Split(flds, FieldSeparator)
		note.Text = FlattenHTML(note.Fields[0])
		if len(note.Fields) > 1 {
			note.Extra = FlattenHTML(note.Fields[1])
		}
		note.Cards = cardsByNote[note.ID]
		p.Notes = append(p.Notes, note)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating notes: %w", err)
	}
	return nil
}

func loadCards(db *sql.DB) (map[int64][]Card, int, error) {
	rows, err := db.Query(`SELECT id, nid, did, ord FROM cards ORDER BY id`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	byNote := make(map[int64][]Card)
	total := 0
	for rows.Next() {
		var card Card
		var nid int64
		if err := rows.Scan(&card.ID, &nid, &card.Deck, &card.Ord); err != nil {
			return nil, 0, fmt.Errorf("failed to scan card: %w", err)
		}
		byNote[nid] = append(byNote[nid], card)
		total++
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating cards: %w", err)
	}
	return byNote, total, nil
}

func parseDecks(decksJSON string) ([]DeckInfo, error) {
	var raw map[string]struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(decksJSON), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode decks: %w", err)
	}

	decks := make([]DeckInfo, 0, len(raw))
	for _, d := range raw {
		decks = append(decks, DeckInfo{ID: d.ID, Name: d.Name})
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].ID < decks[j].ID })
	return decks, nil
}

// extractZipFile extracts a single file from a zip archive
func extractZipFile(file *zip.File, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, rc)
	return err
}

func readZipFile(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
