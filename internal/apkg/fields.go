package apkg

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const guidAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&()*+,-./:;<=>?@[]^_`{|}~"

// NoteGUID derives a stable note id from its fields, so regenerated
// packages update existing notes on import instead of duplicating them.
func NoteGUID(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "__")))
	n := new(big.Int).SetUint64(binary.BigEndian.Uint64(sum[:8]))

	base := big.NewInt(int64(len(guidAlphabet)))
	rem := new(big.Int)
	var reversed []byte
	for n.Sign() > 0 {
		n.DivMod(n, base, rem)
		reversed = append(reversed, guidAlphabet[rem.Int64()])
	}

	out := make([]byte, len(reversed))
	for i, c := range reversed {
		out[len(reversed)-1-i] = c
	}
	return string(out)
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

// FlattenHTML is StripHTML with line breaks kept for <br> and <hr>.
func FlattenHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("br, hr").ReplaceWithHtml("\n")
	return strings.TrimSpace(doc.Text())
}

// fieldChecksum is the first 32 bits of the SHA-1 of the stripped field,
// which Anki uses for duplicate detection.
func fieldChecksum(field string) int64 {
	sum := sha1.Sum([]byte(StripHTML(field)))
	n, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return n
}
