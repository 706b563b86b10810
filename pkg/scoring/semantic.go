package scoring

import (
	"context"
	"strings"
	"unicode"
)

// TextSimilarity maps two free-text descriptions to a similarity in [0, 1].
// The engine depends only on this contract and does not assume which
// implementation is in effect; implementations may be keyword-based or
// embedding-based.
type TextSimilarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// TextSimilarityFunc adapts a plain function to the TextSimilarity interface.
type TextSimilarityFunc func(ctx context.Context, a, b string) (float64, error)

func (f TextSimilarityFunc) Similarity(ctx context.Context, a, b string) (float64, error) {
	return f(ctx, a, b)
}

// KeywordSimilarity is the default TextSimilarity: lowercase tokenization
// followed by Jaccard overlap of the token sets. It is cheap and fully
// deterministic but produces false negatives for paraphrases, which is why
// the interface exists.
type KeywordSimilarity struct {
	// Stopwords are excluded from both token sets. Nil means no filtering.
	Stopwords map[string]struct{}
}

// NewKeywordSimilarity returns a keyword scorer with the default English
// stopword list.
func NewKeywordSimilarity() *KeywordSimilarity {
	return &KeywordSimilarity{Stopwords: defaultStopwords()}
}

func (k *KeywordSimilarity) Similarity(_ context.Context, a, b string) (float64, error) {
	ta := k.tokenSet(a)
	tb := k.tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0, nil
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0, nil
	}
	return float64(intersection) / float64(union), nil
}

func (k *KeywordSimilarity) tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		if k.Stopwords != nil {
			if _, skip := k.Stopwords[tok]; skip {
				continue
			}
		}
		set[tok] = struct{}{}
	}
	return set
}

// Tokenize lowercases text and splits it on any non-alphanumeric rune.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "had", "have", "in", "is", "it", "its", "of", "on", "or",
		"that", "the", "this", "to", "was", "were", "will", "with",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
