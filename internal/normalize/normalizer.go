package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldChain decomposes, strips combining marks and recomposes, so
// "Flamme brûlée" and "Flamme brulee" compare equal.
var foldChain = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// abbreviations is the static expansion table for lexicographic
// shorthand. Expansions may produce multiple tokens.
var abbreviations = map[string][]string{
	"esp":    {"especially"},
	"usu":    {"usually"},
	"orig":   {"originally"},
	"fig":    {"figurative"},
	"lit":    {"literal"},
	"approx": {"approximately"},
	"sth":    {"something"},
	"sb":     {"somebody"},
	"cf":     {"compare"},
	"eg":     {"for", "example"},
	"ie":     {"that", "is"},
	"etc":    {"etcetera"},
}

// stopTokens are dropped from comparison keys only; the raw gloss is
// always preserved. Negation words (not, no, never, without) are kept:
// the similarity scorer's contradiction rule depends on them.
var stopTokens = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "at": {}, "by": {}, "for": {},
	"with": {}, "as": {}, "from": {}, "into": {},
	"and": {}, "or": {},
	"is": {}, "are": {}, "be": {}, "was": {}, "were": {}, "been": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "which": {}, "who": {},
	"any": {}, "some": {}, "one": {},
}

// Normalizer derives canonical comparison keys from raw gloss text.
// Normalization is referentially transparent: the same raw text always
// yields the same key, across runs and platforms. It never paraphrases or
// translates.
type Normalizer struct {
	ja *japaneseSegmenter
}

// New creates a normalizer. The Japanese segmenter is built lazily on the
// first ja-tagged gloss.
func New() *Normalizer {
	return &Normalizer{ja: &japaneseSegmenter{}}
}

// Key normalizes a raw gloss into its comparison token sequence.
// Steps, in order: Unicode NFKD fold with combining marks stripped, case
// folding, whitespace collapsing, tokenization on word boundaries (kagome
// segmentation for ja), abbreviation expansion, stop-token removal.
func (n *Normalizer) Key(raw string, lang string) []string {
	folded, _, err := transform.String(foldChain, raw)
	if err != nil {
		// Fall back to the raw text; a key must always be derivable.
		folded = raw
	}
	folded = strings.ToLower(folded)
	folded = strings.Join(strings.Fields(folded), " ")

	var tokens []string
	if lang == "ja" {
		if segmented, ok := n.ja.segment(raw); ok {
			tokens = segmented
		}
	}
	if tokens == nil {
		tokens = strings.FieldsFunc(folded, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
	}

	key := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		expanded, ok := abbreviations[tok]
		if !ok {
			expanded = []string{tok}
		}
		for _, t := range expanded {
			if _, stop := stopTokens[t]; stop {
				continue
			}
			if t == "" {
				continue
			}
			key = append(key, t)
		}
	}
	return key
}
