package analyzer

import (
	"strings"
	"unicode"
)

// DefaultMinTermLength is the minimum length of an extracted keyword.
const DefaultMinTermLength = 3

// KeywordExtractor derives salient terms from query text for lexical
// scoring and query expansion. Extraction is deterministic: lower-cased,
// stop-words stripped, unique terms above the minimum length, input order
// preserved.
type KeywordExtractor struct {
	stopwords map[string]struct{}
	minLen    int
}

// NewKeywordExtractor creates an extractor with the given minimum term
// length. Values below 1 fall back to the default.
func NewKeywordExtractor(minTermLength int) *KeywordExtractor {
	if minTermLength < 1 {
		minTermLength = DefaultMinTermLength
	}
	return &KeywordExtractor{
		stopwords: defaultStopwords(),
		minLen:    minTermLength,
	}
}

// Extract returns the unique keywords of the text in order of first
// appearance.
func (e *KeywordExtractor) Extract(text string) []string {
	words := splitWords(text)

	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < e.minLen {
			continue
		}
		if _, isStop := e.stopwords[word]; isStop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}

// ExpandQuery appends the extracted keywords to the original query,
// order-preserving, to push the query embedding toward documents that
// contain those terms. A query with no keywords is returned unchanged.
func (e *KeywordExtractor) ExpandQuery(query string) string {
	keywords := e.Extract(query)
	if len(keywords) == 0 {
		return query
	}
	return query + " " + strings.Join(keywords, " ")
}

// LexicalScore returns the fraction of keywords present in the text as
// whole words, case-insensitively, in [0,1]. A text containing none of the
// keywords scores 0, as does an empty keyword list.
func (e *KeywordExtractor) LexicalScore(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	present := make(map[string]struct{})
	for _, word := range splitWords(text) {
		present[strings.ToLower(word)] = struct{}{}
	}

	matches := 0
	for _, kw := range keywords {
		if _, ok := present[strings.ToLower(kw)]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(keywords))
}

// splitWords splits text into words on unicode boundaries. Hyphens and
// apostrophes bind into the surrounding word so terms like "don't" and
// "e-mail" survive extraction.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns the fixed English stopword set.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to",
		"for", "of", "with", "by", "is", "are", "was", "were", "be",
		"been", "being", "have", "has", "had", "do", "does", "did",
		"will", "would", "should", "could", "may", "might", "must",
		"can", "this", "that", "these", "those", "what", "which",
		"who", "whom", "whose", "where", "when", "why", "how",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
