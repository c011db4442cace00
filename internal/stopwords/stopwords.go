// Package stopwords provides per-language stopword lists. Lists come from
// the NLTK stopwords corpus, downloaded once into a cache directory, with
// an embedded English list used whenever the corpus is unavailable.
package stopwords

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultURL is the NLTK data mirror for the stopwords corpus.
const DefaultURL = "https://raw.githubusercontent.com/nltk/nltk_data/gh-pages/packages/corpora/stopwords.zip"

const (
	cacheFilename   = "stopwords.zip"
	defaultLanguage = "en"
)

// corpusNames maps ISO 639-1 codes to the file names inside the corpus.
var corpusNames = map[string]string{
	"en": "english",
	"fr": "french",
	"de": "german",
	"es": "spanish",
	"it": "italian",
	"pt": "portuguese",
	"nl": "dutch",
	"ru": "russian",
	"sv": "swedish",
}

//go:embed english.txt
var embeddedEnglish []byte

// Set is a lowercase stopword set.
type Set map[string]struct{}

func (s Set) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Loader resolves stopword sets, fetching the corpus at most once per
// process.
type Loader struct {
	logger     *slog.Logger
	httpClient *http.Client
	url        string
	cacheDir   string

	mu     sync.Mutex
	loaded bool
	sets   map[string]Set
}

// NewLoader creates a loader. An empty url disables downloading; an empty
// cacheDir keeps the downloaded corpus in memory only.
func NewLoader(logger *slog.Logger, url, cacheDir string) *Loader {
	return &Loader{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		url:      url,
		cacheDir: cacheDir,
	}
}

// Normalize reduces a locale such as "en-US" or "pt_BR" to its primary
// subtag. Unsupported or empty languages become English.
func Normalize(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(language, "-_"); i >= 0 {
		language = language[:i]
	}
	if _, ok := corpusNames[language]; !ok {
		return defaultLanguage
	}
	return language
}

// For returns the stopword set for language. Languages missing from the
// loaded corpus fall back to English.
func (l *Loader) For(ctx context.Context, language string) Set {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		l.sets = l.load(ctx)
		l.loaded = true
	}

	if set, ok := l.sets[Normalize(language)]; ok {
		return set
	}
	return l.sets[defaultLanguage]
}

func (l *Loader) load(ctx context.Context) map[string]Set {
	sets := map[string]Set{
		defaultLanguage: parseList(bytes.NewReader(embeddedEnglish)),
	}

	data, err := l.corpus(ctx)
	if err != nil {
		l.logger.Warn("Stopwords corpus unavailable, using built-in English list", "error", err)
		return sets
	}

	fromCorpus, err := parseCorpus(data)
	if err != nil {
		l.logger.Warn("Stopwords corpus unreadable, using built-in English list", "error", err)
		return sets
	}

	for lang, set := range fromCorpus {
		sets[lang] = set
	}
	l.logger.Debug("Loaded stopwords corpus", "languages", len(fromCorpus))
	return sets
}

// corpus returns the cached archive, downloading it when absent.
func (l *Loader) corpus(ctx context.Context) ([]byte, error) {
	cachePath := ""
	if l.cacheDir != "" {
		cachePath = filepath.Join(l.cacheDir, cacheFilename)
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	if l.url == "" {
		return nil, fmt.Errorf("no download url configured")
	}

	data, err := l.download(ctx)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		if err := os.MkdirAll(l.cacheDir, 0755); err != nil {
			l.logger.Warn("Failed to create stopwords cache dir", "dir", l.cacheDir, "error", err)
		} else if err := os.WriteFile(cachePath, data, 0644); err != nil {
			l.logger.Warn("Failed to cache stopwords corpus", "path", cachePath, "error", err)
		}
	}

	return data, nil
}

func (l *Loader) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stopwords: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return data, nil
}

func parseCorpus(data []byte) (map[string]Set, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	byName := make(map[string]string, len(corpusNames))
	for code, name := range corpusNames {
		byName[name] = code
	}

	sets := make(map[string]Set)
	for _, f := range zr.File {
		code, ok := byName[path.Base(f.Name)]
		if !ok || f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		sets[code] = parseList(rc)
		rc.Close()
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("archive has no known stopword lists")
	}
	return sets, nil
}

func parseList(r io.Reader) Set {
	set := make(Set)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return set
}
