package textindex

import (
	"strings"

	"photosync/pkg/errors"
)

// Category is a grammatical category from a fixed tagset.
type Category int

const (
	Unclassified Category = iota
	Noun
	Verb
	Adjective
	Adverb
	Determiner
	Preposition
	Pronoun
	Conjunction
	Particle
	Interjection
	Symbol
)

var categoryNames = map[Category]string{
	Unclassified: "unclassified",
	Noun:         "noun",
	Verb:         "verb",
	Adjective:    "adjective",
	Adverb:       "adverb",
	Determiner:   "determiner",
	Preposition:  "preposition",
	Pronoun:      "pronoun",
	Conjunction:  "conjunction",
	Particle:     "particle",
	Interjection: "interjection",
	Symbol:       "symbol",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unclassified"
}

// Salient reports whether tokens of this category carry enough meaning to be
// indexed. Content categories and unclassified tokens survive; function-word
// categories are dropped.
func (c Category) Salient() bool {
	switch c {
	case Noun, Verb, Adjective, Adverb, Unclassified:
		return true
	default:
		return false
	}
}

// Tagger assigns a grammatical category to each token in a sequence.
// Implementations are pluggable; the indexer only relies on Salient.
type Tagger interface {
	Tag(tokens []string) []Category
}

// NewTagger builds the tagger selected by name. The empty name selects the
// lexicon tagger, "kagome" the morphological analyzer for Japanese sources.
func NewTagger(name string) (Tagger, error) {
	switch strings.ToLower(name) {
	case "", "lexicon":
		return NewLexiconTagger(), nil
	case "kagome":
		return NewKagomeTagger()
	default:
		return nil, errors.New(errors.ErrorTypeConfiguration, "unknown tagger %q", name)
	}
}

// LexiconTagger classifies English closed-class function words by lexicon
// lookup. Anything outside the lexicon is Unclassified, which keeps it in
// the index; only known determiners, prepositions, pronouns, conjunctions
// and particles are filtered out.
type LexiconTagger struct {
	classes map[string]Category
}

// NewLexiconTagger builds a tagger over the built-in function-word lexicon.
func NewLexiconTagger() *LexiconTagger {
	classes := make(map[string]Category, 128)
	add := func(cat Category, words ...string) {
		for _, w := range words {
			classes[w] = cat
		}
	}

	add(Determiner,
		"the", "a", "an", "this", "that", "these", "those", "each", "every",
		"either", "neither", "some", "any", "no", "all", "both", "half",
		"such", "what", "which", "whatever", "whichever")
	add(Preposition,
		"of", "in", "on", "at", "by", "for", "with", "without", "about",
		"against", "between", "among", "into", "onto", "through", "during",
		"before", "after", "above", "below", "to", "from", "up", "down",
		"under", "over", "off", "near", "across", "behind", "beyond",
		"within", "along", "around", "toward", "towards", "upon")
	add(Pronoun,
		"i", "you", "he", "she", "it", "we", "they", "me", "him", "her",
		"us", "them", "my", "your", "his", "its", "our", "their", "mine",
		"yours", "hers", "ours", "theirs", "who", "whom", "whose",
		"myself", "yourself", "himself", "herself", "itself", "ourselves",
		"themselves")
	add(Conjunction,
		"and", "or", "but", "nor", "so", "yet", "if", "because", "although",
		"though", "while", "whereas", "unless", "until", "when", "whenever",
		"where", "wherever", "than", "whether")
	add(Particle, "not")

	return &LexiconTagger{classes: classes}
}

// Tag classifies each token. Lookup is case-insensitive and ignores
// punctuation stuck to the token.
func (t *LexiconTagger) Tag(tokens []string) []Category {
	categories := make([]Category, len(tokens))
	for i, token := range tokens {
		key := strings.ToLower(strings.TrimFunc(token, func(r rune) bool {
			return !isWordRune(r)
		}))
		if cat, ok := t.classes[key]; ok {
			categories[i] = cat
		} else {
			categories[i] = Unclassified
		}
	}
	return categories
}

func isWordRune(r rune) bool {
	return r == '\'' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r > 127
}
