package cards

import (
	"context"
	"crypto/md5"
	"fmt"
	"math/big"

	"github.com/mrlokans/koreader-anki/internal/entities"
)

// DefaultDeckName is the parent deck every book deck is nested under.
const DefaultDeckName = "Books Highlights 📚"

var deckIDModulus = big.NewInt(10_000_000_000)

// Deck is one book's notes under "<parent>::<title>-<author>".
type Deck struct {
	ID    int64
	Name  string
	Book  entities.BookMetadata
	Notes []Note
}

// DeckFullName nests the book deck under parent.
func DeckFullName(parent string, meta entities.BookMetadata) string {
	return fmt.Sprintf("%s::%s-%s", parent, DisplayName(meta.Title), DisplayName(meta.Authors))
}

// DeckID derives a stable id from the full deck name: the MD5 digest read
// as a big-endian integer, modulo 10^10.
func DeckID(fullName string) int64 {
	sum := md5.Sum([]byte(fullName))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, deckIDModulus).Int64()
}

func NewDeck(parent string, meta entities.BookMetadata) *Deck {
	name := DeckFullName(parent, meta)
	return &Deck{
		ID:   DeckID(name),
		Name: name,
		Book: meta,
	}
}

// BuildDeck assembles every record of source in order.
func BuildDeck(ctx context.Context, parent string, source *entities.ParsedSource, assembler *Assembler) (*Deck, error) {
	deck := NewDeck(parent, source.Metadata)

	for i, record := range source.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		notes, err := assembler.Assemble(ctx, record, source.Metadata)
		if err != nil {
			return nil, fmt.Errorf("highlight %d: %w", i+1, err)
		}
		deck.Notes = append(deck.Notes, notes...)
	}

	return deck, nil
}
