// Package language resolves the language of a book, detecting it from the
// highlight text when the sidecar metadata does not carry one.
package language

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Fallback is used when neither metadata nor detection yields a language.
const Fallback = "en"

// Sample length used for detection; highlights beyond it add little.
const maxSampleRunes = 4000

// Languages that have stopword lists.
var candidates = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Russian,
	lingua.Swedish,
}

// Detector wraps a lingua detector built on first use.
type Detector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the lowercase ISO 639-1 code of text.
func (d *Detector) Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			Build()
	})

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Resolve prefers the metadata language and falls back to detecting it
// from the highlight texts, then to English.
func (d *Detector) Resolve(metadataLanguage string, texts []string) string {
	if lang := strings.TrimSpace(metadataLanguage); lang != "" {
		return lang
	}

	if lang, ok := d.Detect(sample(texts)); ok {
		return lang
	}
	return Fallback
}

func sample(texts []string) string {
	var b strings.Builder
	runes := 0
	for _, text := range texts {
		if runes >= maxSampleRunes {
			break
		}
		b.WriteString(text)
		b.WriteByte(' ')
		runes += len([]rune(text)) + 1
	}
	return b.String()
}
