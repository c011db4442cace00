package language

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_PrefersMetadata(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, "en-US", d.Resolve(" en-US ", []string{"Le chat est assis sur le tapis."}))
}

func TestResolve_DetectsFromTexts(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name     string
		texts    []string
		expected string
	}{
		{
			name: "english",
			texts: []string{
				"When we are in a positive mood, we tend to consider a broader range of actions.",
				"The research suggests that feeling good makes us more productive.",
			},
			expected: "en",
		},
		{
			name: "french",
			texts: []string{
				"Lorsque nous sommes de bonne humeur, nous avons tendance à envisager un plus large éventail d'actions.",
			},
			expected: "fr",
		},
		{
			name: "german",
			texts: []string{
				"Wenn wir gut gelaunt sind, neigen wir dazu, eine größere Auswahl an Handlungen in Betracht zu ziehen.",
			},
			expected: "de",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, d.Resolve("", tt.texts))
		})
	}
}

func TestResolve_FallsBackToEnglish(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, Fallback, d.Resolve("", nil))
	assert.Equal(t, Fallback, d.Resolve("", []string{"   "}))
}

func TestSample_Bounded(t *testing.T) {
	long := make([]string, 0, 100)
	for range 100 {
		long = append(long, strings.Repeat("a", 100))
	}
	assert.LessOrEqual(t, len(sample(long)), maxSampleRunes+101)
}
