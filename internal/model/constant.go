package model

import "time"

// ConstantStatus tracks the curation lifecycle of a semantic constant.
type ConstantStatus string

const (
	StatusProvisional ConstantStatus = "provisional" // Auto-created, unreviewed
	StatusCurated     ConstantStatus = "curated"     // Reviewed and locked
)

// SemanticConstant is a durable, curatable cross-query identifier for a
// recurring sense. The reduction pipeline only ever matches against or
// introduces constants; curation (promote, rename, merge) is an explicit
// out-of-band action. A curated constant is never deleted, only
// superseded via a merge record.
type SemanticConstant struct {
	ConstantID     string         `json:"constant_id"`
	CanonicalLabel string         `json:"canonical_label"`
	Description    string         `json:"description,omitempty"`
	Domains        []string       `json:"domains,omitempty"`
	Status         ConstantStatus `json:"status"`

	// CreatedFrom lists the sense_refs that triggered creation, for audit.
	CreatedFrom []string `json:"created_from,omitempty"`

	// SupersededBy points at the surviving constant after an explicit
	// merge; empty for live constants.
	SupersededBy string `json:"superseded_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Live reports whether the constant is still assignable (not merged away).
func (c *SemanticConstant) Live() bool {
	return c.SupersededBy == ""
}
