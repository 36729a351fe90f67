package model

// SourceTier classifies how much trust a dictionary source carries for a language
type SourceTier int

const (
	TierUnknown   SourceTier = 0 // Not yet classified
	TierPrimary   SourceTier = 1 // Flagged primary/authoritative for the query language
	TierSecondary SourceTier = 2 // Reputable but not authoritative
)

func (t SourceTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Metadata carries the closed set of witness tags the similarity scorer
// understands: domain labels, register labels, part of speech, and an
// optional confidence reported by non-deterministic sources.
type Metadata struct {
	PartOfSpeech     string   `json:"pos,omitempty"`
	Domains          []string `json:"domains,omitempty"`
	Registers        []string `json:"registers,omitempty"`
	SourceConfidence *float64 `json:"source_confidence,omitempty"`
}

// WitnessSenseUnit is one atomic piece of gloss evidence from one source.
// A unit is immutable once created; downstream stages only reference it.
type WitnessSenseUnit struct {
	Source         string     `json:"source"`
	SourcePriority int        `json:"source_priority"` // Lower is consulted first; part of the deterministic ordering
	Tier           SourceTier `json:"tier"`
	SenseRef       string     `json:"sense_ref"` // Stable locator within the source, unique per source+term
	GlossRaw       string     `json:"gloss_raw"` // Untouched definition text, always preserved for display
	GlossKey       []string   `json:"gloss_key"` // Normalized comparison tokens, derived, never hand-edited

	Metadata Metadata `json:"metadata"`

	// Vector is an optional embedding attached before clustering. It is
	// derived from GlossRaw and never mutated afterwards, so the scorer
	// stays a pure function of its two inputs.
	Vector []float32 `json:"-"`
}

// Key returns the witness identity used in deterministic bucket ids.
// The unit separator keeps source and sense_ref from colliding.
func (w *WitnessSenseUnit) Key() string {
	return w.Source + "\x1f" + w.SenseRef
}

// IsPrimary reports whether the witness comes from a primary source.
func (w *WitnessSenseUnit) IsPrimary() bool {
	return w.Tier == TierPrimary
}
