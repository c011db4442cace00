package apkg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Cloze note type shared by every generated package. Keeping the id
// stable lets Anki merge re-imported decks into the same note type.
const (
	ClozeModelID   int64 = 998877661
	clozeModelName       = "Cloze (genanki)"
	defaultDeckID  int64 = 1
	defaultConfID  int64 = 1
)

const clozeCSS = `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}

.cloze {
 font-weight: bold;
 color: blue;
}
.nightMode .cloze {
 color: lightblue;
}`

const latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n" +
	"\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"

const latexPost = "\\end{document}"

// FieldSeparator joins note fields in the flds column.
const FieldSeparator = "\x1f"

type modelField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Font   string   `json:"font"`
	Media  []string `json:"media"`
	RTL    bool     `json:"rtl"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
}

type modelTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	Qfmt  string `json:"qfmt"`
	Afmt  string `json:"afmt"`
	Bqfmt string `json:"bqfmt"`
	Bafmt string `json:"bafmt"`
	Did   *int64 `json:"did"`
}

type model struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	Usn       int             `json:"usn"`
	Sortf     int             `json:"sortf"`
	Did       int64           `json:"did"`
	Tmpls     []modelTemplate `json:"tmpls"`
	Flds      []modelField    `json:"flds"`
	CSS       string          `json:"css"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	LatexSvg  bool            `json:"latexsvg"`
	Req       [][]any         `json:"req"`
	Tags      []string        `json:"tags"`
	Vers      []any           `json:"vers"`
}

type deck struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Desc             string `json:"desc"`
	Mod              int64  `json:"mod"`
	Usn              int    `json:"usn"`
	Conf             int64  `json:"conf"`
	Dyn              int    `json:"dyn"`
	Collapsed        bool   `json:"collapsed"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
	NewToday         [2]int `json:"newToday"`
	RevToday         [2]int `json:"revToday"`
	LrnToday         [2]int `json:"lrnToday"`
	TimeToday        [2]int `json:"timeToday"`
}

func clozeModel(deckID int64, mod time.Time) model {
	font := func(name string, ord int) modelField {
		return modelField{Name: name, Ord: ord, Font: "Arial", Media: []string{}, Size: 20}
	}

	return model{
		ID:    strconv.FormatInt(ClozeModelID, 10),
		Name:  clozeModelName,
		Type:  1,
		Mod:   mod.Unix(),
		Usn:   -1,
		Sortf: 0,
		Did:   deckID,
		Tmpls: []modelTemplate{{
			Name: "Cloze",
			Ord:  0,
			Qfmt: "{{cloze:Text}}",
			Afmt: "{{cloze:Text}}<br>\n{{Back Extra}}",
		}},
		Flds:      []modelField{font("Text", 0), font("Back Extra", 1)},
		CSS:       clozeCSS,
		LatexPre:  latexPre,
		LatexPost: latexPost,
		Req:       [][]any{{0, "any", []int{0}}},
		Tags:      []string{},
		Vers:      []any{},
	}
}

func newDeck(id int64, name string, mod time.Time) deck {
	return deck{
		ID:        id,
		Name:      name,
		Mod:       mod.Unix(),
		Usn:       -1,
		Conf:      defaultConfID,
		ExtendRev: 50,
	}
}

// collectionConf is the col.conf default written by Anki for new
// collections.
func collectionConf() map[string]any {
	return map[string]any{
		"activeDecks":   []int64{defaultDeckID},
		"curDeck":       defaultDeckID,
		"newSpread":     0,
		"collapseTime":  1200,
		"timeLim":       0,
		"estTimes":      true,
		"dueCounts":     true,
		"curModel":      strconv.FormatInt(ClozeModelID, 10),
		"nextPos":       1,
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
	}
}

func defaultDeckConf() map[string]any {
	return map[string]any{
		strconv.FormatInt(defaultConfID, 10): map[string]any{
			"id":       defaultConfID,
			"name":     "Default",
			"mod":      0,
			"usn":      0,
			"maxTaken": 60,
			"autoplay": true,
			"timer":    0,
			"replayq":  true,
			"dyn":      false,
			"new": map[string]any{
				"delays":        []float64{1, 10},
				"ints":          []int{1, 4, 7},
				"initialFactor": 2500,
				"separate":      true,
				"order":         1,
				"perDay":        20,
				"bury":          true,
			},
			"lapse": map[string]any{
				"delays":      []float64{10},
				"mult":        0,
				"minInt":      1,
				"leechFails":  8,
				"leechAction": 0,
			},
			"rev": map[string]any{
				"perDay":   100,
				"ease4":    1.3,
				"fuzz":     0.05,
				"minSpace": 1,
				"ivlFct":   1,
				"maxIvl":   36500,
				"bury":     true,
			},
		},
	}
}

// newCollection renders the col row for a package holding one deck.
func newCollection(deckID int64, deckName string, now time.Time) (colRow, error) {
	decks := map[string]deck{
		strconv.FormatInt(defaultDeckID, 10): newDeck(defaultDeckID, "Default", now),
		strconv.FormatInt(deckID, 10):        newDeck(deckID, deckName, now),
	}
	models := map[string]model{
		strconv.FormatInt(ClozeModelID, 10): clozeModel(deckID, now),
	}

	row := colRow{
		ID:   1,
		Crt:  now.Unix(),
		Mod:  now.UnixMilli(),
		Scm:  now.UnixMilli(),
		Ver:  schemaVersion,
		Tags: "{}",
	}

	var err error
	if row.Conf, err = encodeJSON("conf", collectionConf()); err != nil {
		return colRow{}, err
	}
	if row.Models, err = encodeJSON("models", models); err != nil {
		return colRow{}, err
	}
	if row.Decks, err = encodeJSON("decks", decks); err != nil {
		return colRow{}, err
	}
	if row.Dconf, err = encodeJSON("dconf", defaultDeckConf()); err != nil {
		return colRow{}, err
	}

	return row, nil
}

func encodeJSON(name string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return string(data), nil
}
