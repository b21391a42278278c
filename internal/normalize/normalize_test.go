package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "ACME Holdings", "acme holdings"},
		{"collapses whitespace", "  Acme   Sub\tA ", "acme sub a"},
		{"strips trailing periods", "Acme Inc.", "acme inc"},
		{"empty input", "", ""},
		{"whitespace only", "   \t ", ""},
		{"periods only", "...", ""},
		{"unicode compatibility form", "Ｆｕｌｌｗｉｄｔｈ Ｃｏ", "fullwidth co"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("acme inc", "acme inc"))
	assert.Equal(t, 1.0, Similarity("", ""))

	// One character off a nine-rune name.
	got := Similarity("acme inc", "acme incc")
	assert.InDelta(t, 1.0-1.0/9.0, got, 1e-9)

	// Unrelated names score low.
	assert.Less(t, Similarity("acme inc", "globex corporation"), 0.3)
}

func TestBestMatch(t *testing.T) {
	now := time.Now()
	candidates := []types.Product{
		{ID: 1, Name: "Acme Inc.", CreatedAt: now.Add(-48 * time.Hour)},
		{ID: 2, Name: "Acme Inc", CreatedAt: now},
		{ID: 3, Name: "Globex Corporation", CreatedAt: now},
	}

	t.Run("prefers most recent among equal scores", func(t *testing.T) {
		got := BestMatch("acme inc", candidates, DefaultFuzzyThreshold)
		assert.NotNil(t, got)
		assert.Equal(t, 2, got.ID)
	})

	t.Run("nothing above threshold", func(t *testing.T) {
		got := BestMatch("initech", candidates, DefaultFuzzyThreshold)
		assert.Nil(t, got)
	})

	t.Run("near duplicate absorbed", func(t *testing.T) {
		got := BestMatch("acme incorporated", candidates, 0.5)
		assert.NotNil(t, got)
	})

	t.Run("empty candidate set", func(t *testing.T) {
		assert.Nil(t, BestMatch("acme inc", nil, DefaultFuzzyThreshold))
	})
}
