package keywords

import (
	"strings"

	"github.com/keagan/scriptreel/internal/nlp"
	"github.com/rs/zerolog"
)

// DefaultCount is the number of keywords kept per query
const DefaultCount = 3

// ModelSource hands out the shared language model
type ModelSource interface {
	Model() (nlp.Model, error)
}

// Extractor derives a short search query from narration text
type Extractor struct {
	logger zerolog.Logger
	models ModelSource
	count  int
}

// New creates an extractor keeping at most count keywords
func New(logger zerolog.Logger, models ModelSource, count int) *Extractor {
	if count <= 0 {
		count = DefaultCount
	}
	return &Extractor{
		logger: logger.With().Str("component", "keywords").Logger(),
		models: models,
		count:  count,
	}
}

// Extract returns up to count non-stop nouns and proper nouns in order of
// appearance. When none qualify, or the model cannot be loaded, it falls
// back to the first count words of the text.
func (e *Extractor) Extract(text string) string {
	model, err := e.models.Model()
	if err != nil {
		e.logger.Warn().Err(err).Msg("language model unavailable, using leading words")
		return leadingWords(text, e.count)
	}

	picked := make([]string, 0, e.count)
	for _, tok := range model.Analyze(text) {
		if len(picked) == e.count {
			break
		}
		if tok.IsStop {
			continue
		}
		if tok.Tag == nlp.Noun || tok.Tag == nlp.ProperNoun {
			picked = append(picked, tok.Text)
		}
	}

	if len(picked) == 0 {
		return leadingWords(text, e.count)
	}
	return strings.Join(picked, " ")
}

func leadingWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
