package importance

import (
	"math/rand/v2"

	"github.com/mrlokans/koreader-anki/internal/cloze"
)

const (
	minRandomWindow = 2
	maxRandomWindow = 4
)

// RandomSelector picks a window of two to four consecutive words at a
// uniformly random offset.
type RandomSelector struct {
	rng *rand.Rand
}

// NewRandomSelector uses rng, or a randomly seeded generator when nil.
func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomSelector{rng: rng}
}

// Select returns false for sentences shorter than two words.
func (s *RandomSelector) Select(words []string) (cloze.Span, bool) {
	n := len(words)
	if n < minRandomWindow {
		return cloze.Span{}, false
	}

	upper := min(maxRandomWindow, n)
	length := minRandomWindow + s.rng.IntN(upper-minRandomWindow+1)
	start := s.rng.IntN(n - length + 1)

	return cloze.NewSpan(words, start, start+length), true
}
