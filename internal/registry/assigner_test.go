package registry

import (
	"path/filepath"
	"testing"

	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/normalize"
	"github.com/sensefold/sensefold/internal/similarity"
)

func TestAssigner_NilRegistrySkipsAll(t *testing.T) {
	a := NewAssigner(nil)

	buckets := []*model.SenseBucket{
		testBucket("spicy noodle soup", 0.8, true, "spicy", "noodle", "soup"),
	}
	decisions, diags := a.Assign(buckets, model.ModeOpen, "en")

	if len(decisions) != 1 || decisions[0].Action != "skipped" {
		t.Fatalf("Expected one skipped decision, got %+v", decisions)
	}
	if len(diags) != 0 {
		t.Errorf("Expected no diagnostics for a deliberately absent registry, got %v", diags)
	}
	if buckets[0].SemanticConstant != "" {
		t.Errorf("Expected no constant assigned, got %q", buckets[0].SemanticConstant)
	}
}

func TestAssigner_IntroducesThenMatches(t *testing.T) {
	r := testRegistry(t)
	a := NewAssigner(r)

	first := []*model.SenseBucket{
		testBucket("spicy noodle soup", 0.8, true, "spicy", "noodle", "soup"),
	}
	decisions, _ := a.Assign(first, model.ModeOpen, "en")
	if decisions[0].Action != "introduced" {
		t.Fatalf("Expected introduction on first sight, got %+v", decisions[0])
	}
	if first[0].SemanticConstant != "SPICY_NOODLE_SOUP" {
		t.Errorf("Expected constant assigned to the bucket, got %q", first[0].SemanticConstant)
	}

	second := []*model.SenseBucket{
		testBucket("a spicy noodle soup", 0.8, true, "spicy", "noodle", "soup"),
	}
	decisions, _ = a.Assign(second, model.ModeOpen, "en")
	if decisions[0].Action != "matched" {
		t.Fatalf("Expected match on second sight, got %+v", decisions[0])
	}
	if decisions[0].ConstantID != "SPICY_NOODLE_SOUP" {
		t.Errorf("Expected the same constant, got %q", decisions[0].ConstantID)
	}
}

func TestAssigner_LowConfidenceSkipsIntroduction(t *testing.T) {
	r := testRegistry(t)
	a := NewAssigner(r)

	buckets := []*model.SenseBucket{
		testBucket("an obscure reading", introduceConfidence-0.05, true, "obscure", "reading"),
	}
	decisions, _ := a.Assign(buckets, model.ModeOpen, "en")

	if decisions[0].Action != "skipped" {
		t.Fatalf("Expected skip below the confidence floor, got %+v", decisions[0])
	}
	constants, _ := r.List()
	if len(constants) != 0 {
		t.Errorf("Expected nothing minted, got %d constants", len(constants))
	}
}

func TestAssigner_SkepticRequiresPrimaryBacking(t *testing.T) {
	r := testRegistry(t)
	a := NewAssigner(r)

	buckets := []*model.SenseBucket{
		testBucket("spicy noodle soup", 0.8, false, "spicy", "noodle", "soup"),
	}

	decisions, _ := a.Assign(buckets, model.ModeSkeptic, "en")
	if decisions[0].Action != "skipped" {
		t.Fatalf("Expected skeptic to refuse a secondary-only bucket, got %+v", decisions[0])
	}

	// Open mode introduces from the same bucket.
	decisions, _ = a.Assign(buckets, model.ModeOpen, "en")
	if decisions[0].Action != "introduced" {
		t.Fatalf("Expected open to introduce, got %+v", decisions[0])
	}
}

func TestAssigner_UnderivableBucketSkippedNotUnavailable(t *testing.T) {
	r := testRegistry(t)
	a := NewAssigner(r)

	buckets := []*model.SenseBucket{
		testBucket("...", 0.8, true),
		testBucket("spicy noodle soup", 0.8, true, "spicy", "noodle", "soup"),
	}
	decisions, diags := a.Assign(buckets, model.ModeOpen, "en")

	if decisions[0].Action != "skipped" {
		t.Errorf("Expected underivable bucket skipped, got %q", decisions[0].Action)
	}
	if decisions[0].Detail == "" {
		t.Error("Expected the derivation failure in the decision detail")
	}
	if len(diags) != 0 {
		t.Errorf("Expected no outage diagnostic for a healthy store, got %v", diags)
	}
	// Later buckets are unaffected.
	if decisions[1].Action != "introduced" {
		t.Errorf("Expected the next bucket introduced, got %q", decisions[1].Action)
	}
}

func TestAssigner_StoreFailureDegrades(t *testing.T) {
	r := New(failingStore{}, similarity.NewScorer(), normalize.New())
	a := NewAssigner(r)

	buckets := []*model.SenseBucket{
		testBucket("spicy noodle soup", 0.8, true, "spicy", "noodle", "soup"),
		testBucket("river edge", 0.8, true, "river", "edge"),
	}
	decisions, diags := a.Assign(buckets, model.ModeOpen, "en")

	if len(decisions) != 2 {
		t.Fatalf("Expected a decision per bucket, got %d", len(decisions))
	}
	for i, d := range decisions {
		if d.Action != "unavailable" {
			t.Errorf("Decision %d: expected unavailable, got %q", i, d.Action)
		}
	}
	if len(diags) != 1 {
		t.Errorf("Expected a single registry_unavailable diagnostic, got %d", len(diags))
	}
	if len(diags) > 0 && diags[0].Kind != model.DiagRegistryUnavailable {
		t.Errorf("Expected registry_unavailable, got %s", diags[0].Kind)
	}
	for _, b := range buckets {
		if b.SemanticConstant != "" {
			t.Errorf("Expected no constant under outage, got %q", b.SemanticConstant)
		}
	}
}

func TestAssigner_DecisionPerBucket(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "registry.json"))
	r := New(store, similarity.NewScorer(), normalize.New())
	a := NewAssigner(r)

	buckets := []*model.SenseBucket{
		testBucket("spicy noodle soup", 0.8, true, "spicy", "noodle", "soup"),
		testBucket("river edge", 0.2, true, "river", "edge"),
		testBucket("financial institution", 0.7, true, "financial", "institution"),
	}
	decisions, _ := a.Assign(buckets, model.ModeOpen, "en")

	if len(decisions) != len(buckets) {
		t.Fatalf("Expected %d decisions, got %d", len(buckets), len(decisions))
	}
	actions := map[string]int{}
	for _, d := range decisions {
		actions[d.Action]++
	}
	if actions["introduced"] != 2 || actions["skipped"] != 1 {
		t.Errorf("Expected 2 introduced and 1 skipped, got %v", actions)
	}
}
