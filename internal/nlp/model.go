// Package nlp provides the small rule-based language models used to pick
// search keywords out of narration text.
//
// A model is a lexicon (stop words, closed-class words, known verbs and
// nouns, suffix tables) stored as YAML. Lexicons ship embedded in the binary
// and are installed into a model directory on first use.
package nlp

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Tag is a coarse universal part-of-speech tag
type Tag string

const (
	Noun       Tag = "NOUN"
	ProperNoun Tag = "PROPN"
	Verb       Tag = "VERB"
	Adjective  Tag = "ADJ"
	Adverb     Tag = "ADV"
	Determiner Tag = "DET"
	Adposition Tag = "ADP"
	Pronoun    Tag = "PRON"
	Conjunct   Tag = "CCONJ"
	Numeral    Tag = "NUM"
	Punct      Tag = "PUNCT"
	Other      Tag = "X"
)

// Token is one analyzed word or punctuation mark
type Token struct {
	Text   string
	Tag    Tag
	IsStop bool
}

// Model tags tokens of a text
type Model interface {
	Name() string
	Analyze(text string) []Token
}

// Lexicon is the on-disk description of a model
type Lexicon struct {
	Name        string           `yaml:"name"`
	Language    string           `yaml:"language"`
	StopWords   []string         `yaml:"stop_words"`
	ClosedClass map[Tag][]string `yaml:"closed_class"`
	KnownVerbs  []string         `yaml:"known_verbs"`
	KnownNouns  []string         `yaml:"known_nouns"`
	Suffixes    map[Tag][]string `yaml:"suffixes"`
}

// suffixOrder is the precedence of suffix tables
var suffixOrder = []Tag{Adverb, Verb, Adjective}

// minStem is the shortest stem a suffix rule may leave behind
const minStem = 3

// LexiconModel is a Model backed by a Lexicon
type LexiconModel struct {
	name     string
	stop     map[string]struct{}
	closed   map[string]Tag
	verbs    map[string]struct{}
	nouns    map[string]struct{}
	suffixes map[Tag][]string
}

// ParseLexicon decodes YAML lexicon data into a model
func ParseLexicon(data []byte) (*LexiconModel, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if lex.Name == "" {
		return nil, fmt.Errorf("lexicon has no name")
	}
	return newLexiconModel(lex), nil
}

func newLexiconModel(lex Lexicon) *LexiconModel {
	m := &LexiconModel{
		name:     lex.Name,
		stop:     wordSet(lex.StopWords),
		closed:   make(map[string]Tag),
		verbs:    wordSet(lex.KnownVerbs),
		nouns:    wordSet(lex.KnownNouns),
		suffixes: make(map[Tag][]string),
	}

	// Iterate tags in a fixed order so words listed under several tags resolve deterministically
	tags := make([]Tag, 0, len(lex.ClosedClass))
	for tag := range lex.ClosedClass {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	for _, tag := range tags {
		for _, w := range lex.ClosedClass[tag] {
			key := fold(w)
			if _, taken := m.closed[key]; !taken {
				m.closed[key] = tag
			}
		}
	}

	for tag, list := range lex.Suffixes {
		sorted := make([]string, 0, len(list))
		for _, s := range list {
			sorted = append(sorted, fold(s))
		}
		// Longest suffix first
		sort.SliceStable(sorted, func(i, j int) bool {
			return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
		})
		m.suffixes[tag] = sorted
	}
	return m
}

// Name returns the lexicon name
func (m *LexiconModel) Name() string {
	return m.name
}

// Analyze splits text into tokens and tags each one
func (m *LexiconModel) Analyze(text string) []Token {
	words := tokenize(norm.NFC.String(text))
	tokens := make([]Token, 0, len(words))

	sentenceStart := true
	for _, w := range words {
		key := fold(w)
		_, stop := m.stop[key]
		tok := Token{Text: w, Tag: m.tag(w, key, sentenceStart), IsStop: stop}
		tokens = append(tokens, tok)

		if tok.Tag == Punct {
			if strings.ContainsAny(w, ".!?:;") {
				sentenceStart = true
			}
			continue
		}
		sentenceStart = false
	}
	return tokens
}

func (m *LexiconModel) tag(word, key string, sentenceStart bool) Tag {
	first, _ := utf8.DecodeRuneInString(word)
	switch {
	case unicode.IsPunct(first) || unicode.IsSymbol(first):
		return Punct
	case unicode.IsDigit(first):
		return Numeral
	}

	if tag, ok := m.closed[key]; ok {
		return tag
	}
	if _, ok := m.verbs[key]; ok {
		return Verb
	}
	if _, ok := m.nouns[key]; ok {
		if unicode.IsUpper(first) && !sentenceStart {
			return ProperNoun
		}
		return Noun
	}
	if unicode.IsUpper(first) && !sentenceStart {
		return ProperNoun
	}

	length := utf8.RuneCountInString(key)
	for _, tag := range suffixOrder {
		for _, suffix := range m.suffixes[tag] {
			if strings.HasSuffix(key, suffix) && length-utf8.RuneCountInString(suffix) >= minStem {
				return tag
			}
		}
	}
	return Noun
}

// tokenize splits text into words and single punctuation marks.
// Apostrophes and hyphens inside a word stay attached.
func tokenize(text string) []string {
	var (
		tokens []string
		word   strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			word.WriteRune(r)
		case (r == '\'' || r == '-' || r == '’') && word.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[fold(w)] = struct{}{}
	}
	return set
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
