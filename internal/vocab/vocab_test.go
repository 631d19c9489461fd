package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v := Default()

	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"jacuzzi", "hot tub", true},
		{"Jacuzzi", "hot tub", true},
		{"  HOT-TUB ", "hot tub", true},
		{"hot tub", "hot tub", true},
		{"a/c", "air conditioning", true},
		{"AC", "air conditioning", true},
		{"swimming pool", "pool", true},
		{"fitness center", "gym", true},
		{"helipad", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := v.Normalize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	v := Default()

	t.Run("drops unknown and deduplicates", func(t *testing.T) {
		got := v.NormalizeAll([]string{"jacuzzi", "spa", "helipad", "WiFi", "wifi"})
		assert.Equal(t, []string{"hot tub", "wifi"}, got)
	})

	t.Run("sorted output", func(t *testing.T) {
		got := v.NormalizeAll([]string{"wifi", "balcony", "gym"})
		assert.Equal(t, []string{"balcony", "gym", "wifi"}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, v.NormalizeAll(nil))
		assert.NotNil(t, v.NormalizeAll(nil))
	})
}

func TestScan(t *testing.T) {
	v := Default()

	t.Run("finds synonyms in free text", func(t *testing.T) {
		got := v.Scan("flat with a jacuzzi, aircon and a swimming pool")
		assert.Equal(t, []string{"air conditioning", "hot tub", "pool"}, got)
	})

	t.Run("whole words only", func(t *testing.T) {
		// "spacious" contains "spa" and "ac" but must not match either.
		got := v.Scan("a spacious flat")
		assert.Empty(t, got)
	})

	t.Run("multi-word variants", func(t *testing.T) {
		got := v.Scan("comes with a washing machine")
		assert.Equal(t, []string{"washer"}, got)
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, v.Scan("two bedrooms near the river"))
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vocab.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"sauna": ["steam room"]}`), 0o644))

		v, err := LoadFile(path)
		require.NoError(t, err)

		got, ok := v.Normalize("Steam Room")
		assert.True(t, ok)
		assert.Equal(t, "sauna", got)
		assert.Equal(t, []string{"sauna"}, v.Canonical())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vocab.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("empty table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vocab.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestCanonicalSorted(t *testing.T) {
	v := New(map[string][]string{
		"pool": nil,
		"gym":  nil,
		"wifi": nil,
	})
	assert.Equal(t, []string{"gym", "pool", "wifi"}, v.Canonical())
}
