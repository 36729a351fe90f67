package registry

import (
	"errors"
	"fmt"

	"github.com/sensefold/sensefold/internal/model"
)

// Assigner applies the match-or-introduce policy for one reduction. It
// never performs curation: promote, rename and merge stay out-of-band.
type Assigner struct {
	registry *Registry
}

// NewAssigner creates an assigner over a registry. A nil registry is
// valid and leaves every bucket without a constant.
func NewAssigner(registry *Registry) *Assigner {
	return &Assigner{registry: registry}
}

// Assign resolves a semantic constant for each bucket in place and
// returns the decision trail. Store failures downgrade to nil constants
// with a diagnostic: constant assignment is an enrichment, never a
// prerequisite for sense output.
//
// Policy by mode: open introduces for any sufficiently confident bucket;
// skeptic additionally requires the bucket to be primary-backed.
func (a *Assigner) Assign(buckets []*model.SenseBucket, mode model.Mode, lang string) ([]model.RegistryDecision, []model.Diagnostic) {
	decisions := make([]model.RegistryDecision, 0, len(buckets))
	var diags []model.Diagnostic

	if a.registry == nil {
		for _, b := range buckets {
			decisions = append(decisions, model.RegistryDecision{
				BucketID: b.BucketID,
				Action:   "skipped",
				Detail:   "no registry configured",
			})
		}
		return decisions, diags
	}

	degraded := false
	for _, b := range buckets {
		if degraded {
			decisions = append(decisions, model.RegistryDecision{
				BucketID: b.BucketID,
				Action:   "unavailable",
			})
			continue
		}

		matched, sim, err := a.registry.Match(b, lang)
		if err != nil {
			degraded = true
			diags = append(diags, model.Diagnostic{
				Kind:   model.DiagRegistryUnavailable,
				Detail: err.Error(),
			})
			decisions = append(decisions, model.RegistryDecision{
				BucketID: b.BucketID,
				Action:   "unavailable",
				Detail:   err.Error(),
			})
			continue
		}

		if matched != nil {
			b.SemanticConstant = matched.ConstantID
			decisions = append(decisions, model.RegistryDecision{
				BucketID:   b.BucketID,
				Action:     "matched",
				ConstantID: matched.ConstantID,
				Similarity: sim,
			})
			continue
		}

		if b.Confidence < introduceConfidence {
			decisions = append(decisions, model.RegistryDecision{
				BucketID:   b.BucketID,
				Action:     "skipped",
				Similarity: sim,
				Detail:     fmt.Sprintf("confidence %.2f below introduction floor", b.Confidence),
			})
			continue
		}
		if mode == model.ModeSkeptic && !b.PrimaryBacked {
			decisions = append(decisions, model.RegistryDecision{
				BucketID:   b.BucketID,
				Action:     "skipped",
				Similarity: sim,
				Detail:     "skeptic mode requires a primary-source witness",
			})
			continue
		}

		introduced, err := a.registry.Introduce(b)
		if err != nil {
			// An underivable bucket is a property of its gloss, not a
			// registry outage.
			if errors.Is(err, ErrNoContentTokens) {
				decisions = append(decisions, model.RegistryDecision{
					BucketID:   b.BucketID,
					Action:     "skipped",
					Similarity: sim,
					Detail:     err.Error(),
				})
				continue
			}
			diags = append(diags, model.Diagnostic{
				Kind:   model.DiagRegistryUnavailable,
				Detail: err.Error(),
			})
			decisions = append(decisions, model.RegistryDecision{
				BucketID: b.BucketID,
				Action:   "unavailable",
				Detail:   err.Error(),
			})
			continue
		}

		b.SemanticConstant = introduced.ConstantID
		decisions = append(decisions, model.RegistryDecision{
			BucketID:   b.BucketID,
			Action:     "introduced",
			ConstantID: introduced.ConstantID,
			Similarity: sim,
		})
	}

	return decisions, diags
}
