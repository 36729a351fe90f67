package normalize

import (
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// japaneseSegmenter wraps kagome's IPA-dictionary tokenizer. Japanese
// glosses carry no word boundaries, so morphological segmentation stands
// in for whitespace tokenization. The tokenizer is expensive to build and
// is constructed once.
type japaneseSegmenter struct {
	once sync.Once
	t    *tokenizer.Tokenizer
	err  error
}

// segment splits Japanese text into base-form tokens. Returns false when
// the tokenizer could not be built; callers then fall back to rune-class
// tokenization.
func (s *japaneseSegmenter) segment(text string) ([]string, bool) {
	s.once.Do(func() {
		s.t, s.err = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	if s.err != nil {
		return nil, false
	}

	var out []string
	for _, tok := range s.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		// IPA feature 6 is the base form (lemma); prefer it so inflected
		// forms of the same word compare equal.
		base := tok.Surface
		if features := tok.Features(); len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		out = append(out, strings.ToLower(base))
	}
	return out, true
}
