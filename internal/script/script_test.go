package script

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func texts(scenes []Scene) []string {
	out := make([]string, len(scenes))
	for i, s := range scenes {
		out[i] = s.Text
	}
	return out
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"markers and blank line", "Cena: A cat plays.\n\nCena: A dog runs.", []string{"A cat plays.", "A dog runs."}},
		{"blank lines only", "Primeira parte.\n\nSegunda parte.\n   \nTerceira.", []string{"Primeira parte.", "Segunda parte.", "Terceira."}},
		{"markers without blank lines", "Cena: praia\nCena- floresta\ncena : cidade", []string{"praia", "floresta", "cidade"}},
		{"single block", "Um gato\nbrinca no jardim.", []string{"Um gato\nbrinca no jardim."}},
		{"marker mid line is text", "A Cena: não separa", []string{"A Cena: não separa"}},
		{"windows newlines", "Um.\r\n\r\nDois.", []string{"Um.", "Dois."}},
		{"empty parts dropped", "\n\nCena:\n\n  \nCena: fim\n\n", []string{"fim"}},
		{"whitespace only", "   \n\t\n", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := texts(Split(tc.in))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Split(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestSplitIndexesAreOneBased(t *testing.T) {
	scenes := Split("a\n\nb\n\nc")
	for i, s := range scenes {
		assert.Equal(t, i+1, s.Index)
	}
}

func TestSplitCountMatchesSegments(t *testing.T) {
	for k := 1; k <= 12; k++ {
		parts := make([]string, k)
		for i := range parts {
			sep := "\n\n"
			if i%2 == 1 {
				sep = "\nCena: "
			}
			parts[i] = fmt.Sprintf("%sSegmento número %d com texto.", sep, i)
		}
		scenes := Split(strings.Join(parts, ""))
		assert.Len(t, scenes, k)
		for i, s := range scenes {
			assert.Equal(t, fmt.Sprintf("Segmento número %d com texto.", i), s.Text)
		}
	}
}

func TestSplitJoinIsIdempotent(t *testing.T) {
	original := Split("Cena: O sol nasce.\nCena- A praia acorda.\n\nPessoas chegam.\n\n\nCENA: Noite.")
	again := Split(strings.Join(texts(original), "\n\n"))

	if diff := cmp.Diff(original, again); diff != "" {
		t.Errorf("re-split mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimateSeconds(t *testing.T) {
	assert.Equal(t, 12, EstimateSeconds(strings.Repeat("word ", 30), 150))
	assert.Equal(t, 2, EstimateSeconds("a", 150))
	assert.Equal(t, 2, EstimateSeconds("", 150))
	assert.Equal(t, 24, EstimateSeconds(strings.Repeat("palavra ", 40), 100))
	assert.Equal(t, 9, EstimateSeconds(strings.Repeat("w ", 40), 250), "9.6s floors to 9")
	assert.Equal(t, 600, EstimateSeconds(strings.Repeat("w ", 10), 1), "any positive rate is accepted")
	assert.Equal(t, 2, EstimateSeconds("many words here", 0))
}

func TestEstimatorCustomMinimum(t *testing.T) {
	e := Estimator{MinSeconds: 5}
	assert.Equal(t, 5, e.Seconds("short", 150))
	assert.Equal(t, 12, e.Seconds(strings.Repeat("word ", 30), 150))
	assert.Equal(t, 2, Estimator{}.Seconds("x", 150), "zero minimum falls back to the default")
}
