package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose_ExampleFromDocs(t *testing.T) {
	got := Compose("sad piano", "", "", "")
	want := "Instrumental music. Avoid vocals and spoken word. " +
		"User theme: sad piano. " +
		"Make it coherent and emotionally aligned. 3-part arc: intro -> build -> release."
	assert.Equal(t, want, got)
}

func TestCompose_AllFragmentCombinations(t *testing.T) {
	fragments := []struct {
		label string
		value string
	}{
		{"User theme: dusty synthwave.", "dusty synthwave"},
		{"Image-derived intent: calm lake at dawn", "calm lake at dawn"},
		{"Voice-derived emotion/energy: low energy, rising tension", "low energy, rising tension"},
		{"Voice transcript (narrative hint): we drove all night", "we drove all night"},
	}

	// every subset of the four fragments
	for mask := 0; mask < 16; mask++ {
		inputs := make([]string, 4)
		for i := 0; i < 4; i++ {
			if mask&(1<<i) != 0 {
				inputs[i] = fragments[i].value
			}
		}

		got := Compose(inputs[0], inputs[1], inputs[2], inputs[3])

		assert.True(t, strings.HasPrefix(got, "Instrumental music. Avoid vocals and spoken word."),
			"mask %04b: missing opening", mask)
		assert.True(t, strings.HasSuffix(got, "3-part arc: intro -> build -> release."),
			"mask %04b: missing closing", mask)

		prev := -1
		for i, frag := range fragments {
			idx := strings.Index(got, frag.label)
			if mask&(1<<i) != 0 {
				assert.Greater(t, idx, prev, "mask %04b: fragment %d missing or out of order", mask, i)
				prev = idx
			} else {
				assert.Equal(t, -1, idx, "mask %04b: fragment %d should be omitted", mask, i)
			}
		}
	}
}

func TestCompose_AllEmpty(t *testing.T) {
	got := Compose("", "", "", "")
	want := "Instrumental music. Avoid vocals and spoken word. " +
		"Make it coherent and emotionally aligned. 3-part arc: intro -> build -> release."
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "User theme")
	assert.NotContains(t, got, "Image-derived")
	assert.NotContains(t, got, "Voice-derived")
	assert.NotContains(t, got, "Voice transcript")
}

func TestCompose_WhitespaceOnlyFragmentsOmitted(t *testing.T) {
	got := Compose("  ", " forest trail ", "\t\n", "   ")
	assert.NotContains(t, got, "User theme")
	assert.Contains(t, got, "Image-derived intent: forest trail")
	assert.NotContains(t, got, "  forest")
}
