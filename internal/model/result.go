package model

import "time"

// DiagnosticKind classifies a recovered condition inside one reduction.
type DiagnosticKind string

const (
	// DiagExtractionGap records a source entry that yielded no witnesses.
	// Many sources legitimately contribute only morphological or citation
	// data, so this is informational, not an error.
	DiagExtractionGap DiagnosticKind = "extraction_gap"

	// DiagMalformedWitness records a single rejected witness (missing
	// sense_ref or empty gloss). The rest of the set proceeds.
	DiagMalformedWitness DiagnosticKind = "malformed_witness"

	// DiagRegistryUnavailable records a registry store failure; buckets
	// degrade to nil constants instead of failing the reduction.
	DiagRegistryUnavailable DiagnosticKind = "registry_unavailable"

	// DiagEmbeddingUnavailable records an embedding provider failure;
	// similarity degrades to token overlap only.
	DiagEmbeddingUnavailable DiagnosticKind = "embedding_unavailable"
)

// Diagnostic is one recorded, recovered condition.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Source   string         `json:"source,omitempty"`
	SenseRef string         `json:"sense_ref,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

// Witness is the per-sense output view of one witness unit.
type Witness struct {
	Source   string `json:"source"`
	SenseRef string `json:"sense_ref"`
	GlossRaw string `json:"gloss_raw"`
}

// Sense is one ranked bucket in the output contract.
type Sense struct {
	SenseID          string    `json:"sense_id"`
	SemanticConstant string    `json:"semantic_constant,omitempty"`
	DisplayGloss     string    `json:"display_gloss"`
	Confidence       float64   `json:"confidence"`
	Witnesses        []Witness `json:"witnesses"`
	Collapsed        bool      `json:"collapsed"`
}

// RegistryDecision records one match-or-introduce outcome for audit.
type RegistryDecision struct {
	BucketID   string  `json:"bucket_id"`
	Action     string  `json:"action"` // matched, introduced, skipped, unavailable
	ConstantID string  `json:"constant_id,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Detail     string  `json:"detail,omitempty"`
}

// BucketEvidence is the full bucket→witness mapping for one bucket.
type BucketEvidence struct {
	BucketID      string    `json:"bucket_id"`
	Members       []Witness `json:"members"`
	AvgSimilarity float64   `json:"avg_similarity"`
	PrimaryBacked bool      `json:"primary_backed"`
}

// EvidenceView exposes the clustering and registry decision trail for
// debugging and audit. It is only populated behind an explicit flag.
type EvidenceView struct {
	Buckets  []BucketEvidence   `json:"buckets"`
	Registry []RegistryDecision `json:"registry"`
}

// Result is the complete outcome of reducing one term's evidence.
type Result struct {
	Term        string        `json:"term"`
	Lang        string        `json:"lang"`
	Mode        Mode          `json:"mode"`
	Senses      []Sense       `json:"senses"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	Evidence    *EvidenceView `json:"evidence,omitempty"`
	ReducedAt   time.Time     `json:"reduced_at"`
}
