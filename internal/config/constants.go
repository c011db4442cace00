package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultOutputFolder is where packages are written when no folder is given
	DefaultOutputFolder = "./anki"

	// DefaultDeckName is the parent deck of every book deck
	DefaultDeckName = "Books Highlights 📚"

	// DefaultMaskedLMURL is the hosted inference API base URL
	DefaultMaskedLMURL = "https://api-inference.huggingface.co"

	// DefaultMaskedLMModel is the fill-mask model used for word importance
	DefaultMaskedLMModel = "bert-base-uncased"

	// DefaultStopwordsURL is the NLTK stopwords corpus archive
	DefaultStopwordsURL = "https://raw.githubusercontent.com/nltk/nltk_data/gh-pages/packages/corpora/stopwords.zip"
)

func defaultStopwordsCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "koreader-anki", "stopwords")
}
