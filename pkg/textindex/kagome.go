package textindex

import (
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// KagomeTagger classifies tokens with the kagome morphological analyzer and
// its IPA dictionary. Intended for Japanese-language sources; tokens the
// dictionary does not know come back Unclassified, so mixed-script captions
// degrade gracefully.
type KagomeTagger struct {
	t *tokenizer.Tokenizer
}

// NewKagomeTagger builds a tagger over the IPA dictionary.
func NewKagomeTagger() (*KagomeTagger, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &KagomeTagger{t: t}, nil
}

// Tag classifies each token by its primary part-of-speech feature.
func (k *KagomeTagger) Tag(tokens []string) []Category {
	categories := make([]Category, len(tokens))
	for i, token := range tokens {
		categories[i] = k.classify(token)
	}
	return categories
}

// kagome IPA feature 0 is the primary part of speech.
var kagomeCategories = map[string]Category{
	"名詞":  Noun,
	"動詞":  Verb,
	"形容詞": Adjective,
	"副詞":  Adverb,
	"連体詞": Determiner,
	"助詞":  Particle,
	"助動詞": Particle,
	"接続詞": Conjunction,
	"感動詞": Interjection,
	"記号":  Symbol,
}

func (k *KagomeTagger) classify(token string) Category {
	for _, t := range k.t.Tokenize(token) {
		if t.Class == tokenizer.DUMMY {
			continue
		}
		features := t.Features()
		if len(features) == 0 {
			return Unclassified
		}
		if cat, ok := kagomeCategories[features[0]]; ok {
			return cat
		}
		return Unclassified
	}
	return Unclassified
}
