package similarity

import (
	"math"

	"github.com/sensefold/sensefold/internal/model"
)

// Fixed scoring constants. They are code constants, not configuration:
// reduction output must be byte-identical for identical inputs, so no
// weight may vary per query.
const (
	// tokenWeight and embeddingWeight combine the two base signals when
	// both witnesses carry an embedding vector; without vectors the token
	// signal stands alone.
	tokenWeight     = 0.70
	embeddingWeight = 0.30

	// sharedTagBoost applies once when the witnesses share at least one
	// domain or register tag.
	sharedTagBoost = 0.10

	// primaryPairBoost applies when both witnesses come from sources
	// flagged primary for the language.
	primaryPairBoost = 0.05

	// negationPenalty applies when exactly one gloss carries a negation
	// token. Capped at 1.0 above, floored at 0.0 below.
	negationPenalty = 0.25
)

// negationTokens drives the contradiction heuristic. It is an isolated
// token-presence rule, kept out of the overlap math so it can be tuned or
// disabled without touching it.
var negationTokens = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"without": {},
	"lacking": {},
	"absence": {},
}

// Scorer computes pairwise witness similarity in [0,1]. Score is
// symmetric and a pure function of the two witnesses' gloss keys,
// metadata and optional vectors: no external state, no registry lookups.
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the similarity between two witnesses.
func (s *Scorer) Score(a, b *model.WitnessSenseUnit) float64 {
	base := Jaccard(a.GlossKey, b.GlossKey)
	if len(a.Vector) > 0 && len(b.Vector) > 0 {
		base = tokenWeight*base + embeddingWeight*cosine(a.Vector, b.Vector)
	}

	if sharesTag(a.Metadata, b.Metadata) {
		base += sharedTagBoost
	}
	if a.IsPrimary() && b.IsPrimary() {
		base += primaryPairBoost
	}
	if negationMismatch(a.GlossKey, b.GlossKey) {
		base -= negationPenalty
	}

	return clamp01(base)
}

// ScoreTokens applies the token-only path to two comparison keys. The
// constant registry uses it to compare bucket glosses against constant
// labels with the same mechanism as witness scoring.
func (s *Scorer) ScoreTokens(a, b []string) float64 {
	base := Jaccard(a, b)
	if negationMismatch(a, b) {
		base -= negationPenalty
	}
	return clamp01(base)
}

// Jaccard returns |a∩b| / |a∪b| over the token sets. Two empty keys score 0.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// cosine returns the cosine similarity of two vectors mapped into [0,1].
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	// Raw cosine is [-1,1]; shift into the [0,1] contract.
	return (dot/(math.Sqrt(normA)*math.Sqrt(normB)) + 1) / 2
}

func sharesTag(a, b model.Metadata) bool {
	return overlaps(a.Domains, b.Domains) || overlaps(a.Registers, b.Registers)
}

func overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// negationMismatch reports whether exactly one key carries a negation token.
func negationMismatch(a, b []string) bool {
	return hasNegation(a) != hasNegation(b)
}

func hasNegation(key []string) bool {
	for _, t := range key {
		if _, ok := negationTokens[t]; ok {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
