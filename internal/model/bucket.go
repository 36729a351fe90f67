package model

// SenseBucket is a cluster of witnesses judged to represent the same
// underlying sense. Buckets partition the query's witness set: every
// witness lands in exactly one bucket.
type SenseBucket struct {
	// BucketID is derived from a stable ordering of member identities,
	// never from insertion order or randomness.
	BucketID string `json:"bucket_id"`

	// Members in deterministic clustering order.
	Members []*WitnessSenseUnit `json:"-"`

	// DisplayGloss is the raw gloss of the deterministically chosen
	// representative member (best source priority, lowest sense_ref).
	DisplayGloss string `json:"display_gloss"`

	// DisplayKey is the representative's comparison key, reused by the
	// constant registry so matching never re-normalizes text.
	DisplayKey []string `json:"-"`

	Confidence float64 `json:"confidence"`

	// SemanticConstant is the assigned constant id, empty when no match
	// was confident enough or the registry was unavailable.
	SemanticConstant string `json:"semantic_constant,omitempty"`

	// PrimaryBacked reports whether at least one member comes from a
	// primary source. Skeptic mode gates both merging and constant
	// introduction on it.
	PrimaryBacked bool `json:"primary_backed"`

	// AvgSimilarity is the mean pairwise member similarity (0 for a
	// single-member bucket).
	AvgSimilarity float64 `json:"avg_similarity"`

	// Collapsed marks buckets below the visibility threshold. They stay
	// in the full output and are only hidden in summarized views.
	Collapsed bool `json:"collapsed"`
}
