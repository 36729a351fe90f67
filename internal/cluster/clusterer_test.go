package cluster

import (
	"testing"

	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/similarity"
)

func testClusterer() *Clusterer {
	return New(similarity.NewScorer())
}

func witness(source string, priority int, tier model.SourceTier, ref, raw string, key ...string) *model.WitnessSenseUnit {
	return &model.WitnessSenseUnit{
		Source:         source,
		SourcePriority: priority,
		Tier:           tier,
		SenseRef:       ref,
		GlossRaw:       raw,
		GlossKey:       key,
	}
}

// Three sources agreeing on one meaning collapse into a single bucket
// that lists all three witnesses.
func TestClusterer_AgreementMerges(t *testing.T) {
	c := testClusterer()

	units := []*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "A spicy noodle soup", "spicy", "noodle", "soup"),
		witness("jmdict", 2, model.TierSecondary, "e1#1", "spicy noodle soup dish", "spicy", "noodle", "soup", "dish"),
		witness("llm", 9, model.TierSecondary, "g1#1", "a spicy soup with noodle", "spicy", "soup", "noodle"),
	}

	buckets := c.Cluster(units, model.ModeOpen)
	if len(buckets) != 1 {
		t.Fatalf("Expected 1 bucket for agreeing sources, got %d", len(buckets))
	}
	if len(buckets[0].Members) != 3 {
		t.Errorf("Expected 3 witnesses in the bucket, got %d", len(buckets[0].Members))
	}
	if !buckets[0].PrimaryBacked {
		t.Error("Expected bucket to be primary-backed")
	}
	if buckets[0].DisplayGloss != "A spicy noodle soup" {
		t.Errorf("Expected the best-priority gloss as representative, got %q", buckets[0].DisplayGloss)
	}
}

// A polysemous term with disjoint glosses never merges.
func TestClusterer_PolysemySplits(t *testing.T) {
	c := testClusterer()

	units := []*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "edge of a river", "edge", "river"),
		witness("wikt", 1, model.TierPrimary, "n1#2", "financial institution", "financial", "institution"),
		witness("jmdict", 2, model.TierSecondary, "e1#1", "financial institution for money", "financial", "institution", "money"),
	}

	buckets := c.Cluster(units, model.ModeOpen)
	if len(buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(buckets))
	}

	for _, b := range buckets {
		for _, m := range b.Members {
			if m.SenseRef == "n1#1" && len(b.Members) != 1 {
				t.Errorf("Expected the river sense to stay alone, got %d members", len(b.Members))
			}
		}
	}
}

// Identical input in any order yields identical buckets with identical ids.
func TestClusterer_Deterministic(t *testing.T) {
	c := testClusterer()

	base := []*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
		witness("jmdict", 2, model.TierSecondary, "e1#1", "noodle soup", "noodle", "soup"),
		witness("wikt", 1, model.TierPrimary, "n1#2", "a unit of one hundred thousand", "unit", "hundred", "thousand"),
		witness("llm", 9, model.TierSecondary, "g1#1", "curry soup with noodle", "curry", "soup", "noodle"),
	}
	reversed := make([]*model.WitnessSenseUnit, len(base))
	for i, u := range base {
		reversed[len(base)-1-i] = u
	}

	first := c.Cluster(base, model.ModeOpen)
	second := c.Cluster(reversed, model.ModeOpen)

	if len(first) != len(second) {
		t.Fatalf("Expected identical bucket count, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].BucketID != second[i].BucketID {
			t.Errorf("Bucket %d: expected identical ids, got %s vs %s", i, first[i].BucketID, second[i].BucketID)
		}
		if first[i].Confidence != second[i].Confidence {
			t.Errorf("Bucket %d: expected identical confidence, got %f vs %f", i, first[i].Confidence, second[i].Confidence)
		}
	}
}

// Every witness lands in exactly one bucket, whatever the mode.
func TestClusterer_PartitionInvariant(t *testing.T) {
	c := testClusterer()

	units := []*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
		witness("jmdict", 2, model.TierSecondary, "e1#1", "noodle soup", "noodle", "soup"),
		witness("jmdict", 2, model.TierSecondary, "e1#2", "financial institution", "financial", "institution"),
		witness("llm", 9, model.TierSecondary, "g1#1", "soup", "soup"),
		witness("llm", 9, model.TierSecondary, "g1#2", "river edge", "river", "edge"),
	}

	for _, mode := range []model.Mode{model.ModeOpen, model.ModeSkeptic} {
		buckets := c.Cluster(units, mode)

		seen := make(map[string]int)
		total := 0
		for _, b := range buckets {
			total += len(b.Members)
			for _, m := range b.Members {
				seen[m.Key()]++
			}
		}
		if total != len(units) {
			t.Errorf("%s: expected %d assigned witnesses, got %d", mode, len(units), total)
		}
		for key, count := range seen {
			if count != 1 {
				t.Errorf("%s: witness %s assigned %d times", mode, key, count)
			}
		}
	}
}

// Skeptic never produces fewer buckets than open on the same witnesses.
func TestClusterer_ModeMonotonicity(t *testing.T) {
	c := testClusterer()

	// Pairwise similarity here sits between the two thresholds, so open
	// merges and skeptic splits.
	units := []*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "spicy soup broth", "spicy", "soup", "broth"),
		witness("jmdict", 2, model.TierSecondary, "e1#1", "spicy soup dish", "spicy", "soup", "dish"),
	}

	open := c.Cluster(units, model.ModeOpen)
	skeptic := c.Cluster(units, model.ModeSkeptic)

	if len(open) != 1 {
		t.Fatalf("Expected open to merge, got %d buckets", len(open))
	}
	if len(skeptic) != 2 {
		t.Fatalf("Expected skeptic to split, got %d buckets", len(skeptic))
	}
	if len(skeptic) < len(open) {
		t.Errorf("Expected skeptic bucket count >= open, got %d < %d", len(skeptic), len(open))
	}
}

// A witness sharing no tokens with the bucket opener still joins when it
// matches any existing member above threshold: assignment follows the
// fixed sort order and scores against every member, not just the first.
func TestClusterer_ChainedSimilarityThroughSharedMember(t *testing.T) {
	c := testClusterer()

	a := witness("wikt", 1, model.TierPrimary, "n1#1", "a red wine drink", "red", "wine", "drink")
	b := witness("jmdict", 2, model.TierSecondary, "e1#1", "red wine turned to sour vinegar", "red", "wine", "vinegar", "sour")
	chained := witness("llm", 9, model.TierSecondary, "g1#1", "sour vinegar acid", "vinegar", "sour", "acid")

	if sim := similarity.Jaccard(a.GlossKey, chained.GlossKey); sim != 0 {
		t.Fatalf("Expected disjoint endpoint keys, got %f", sim)
	}

	buckets := c.Cluster([]*model.WitnessSenseUnit{a, b, chained}, model.ModeOpen)
	if len(buckets) != 1 {
		t.Fatalf("Expected chained merge into 1 bucket, got %d", len(buckets))
	}
	if len(buckets[0].Members) != 3 {
		t.Errorf("Expected all 3 witnesses in the bucket, got %d", len(buckets[0].Members))
	}

	// Without the bridging witness the endpoints stay apart.
	unbridged := c.Cluster([]*model.WitnessSenseUnit{a, chained}, model.ModeOpen)
	if len(unbridged) != 2 {
		t.Errorf("Expected 2 buckets without the bridge, got %d", len(unbridged))
	}
}

// Skeptic refuses merges into buckets with no primary witness even above
// the similarity threshold.
func TestClusterer_SkepticRequiresPrimaryTarget(t *testing.T) {
	c := testClusterer()

	units := []*model.WitnessSenseUnit{
		witness("llm", 9, model.TierSecondary, "g1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
		witness("llm2", 10, model.TierSecondary, "g2#1", "spicy noodle soup", "spicy", "noodle", "soup"),
	}

	if buckets := c.Cluster(units, model.ModeOpen); len(buckets) != 1 {
		t.Fatalf("Expected open to merge identical glosses, got %d buckets", len(buckets))
	}
	if buckets := c.Cluster(units, model.ModeSkeptic); len(buckets) != 2 {
		t.Fatalf("Expected skeptic to keep secondary-only witnesses apart, got %d buckets", len(buckets))
	}
}

func TestClusterer_SkepticMergesIntoPrimaryBucket(t *testing.T) {
	c := testClusterer()

	units := []*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
		witness("llm", 9, model.TierSecondary, "g1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
	}

	buckets := c.Cluster(units, model.ModeSkeptic)
	if len(buckets) != 1 {
		t.Fatalf("Expected skeptic to merge into the primary-backed bucket, got %d", len(buckets))
	}
}

func TestClusterer_ConfidenceBounds(t *testing.T) {
	c := testClusterer()

	units := []*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
		witness("jmdict", 2, model.TierPrimary, "e1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
		witness("llm", 9, model.TierSecondary, "g1#1", "spicy noodle soup", "spicy", "noodle", "soup"),
		witness("llm", 9, model.TierSecondary, "g1#2", "unrelated thing", "unrelated", "thing"),
	}

	for _, mode := range []model.Mode{model.ModeOpen, model.ModeSkeptic} {
		for _, b := range c.Cluster(units, mode) {
			if b.Confidence < 0 || b.Confidence > 1 {
				t.Errorf("%s: confidence out of bounds: %f", mode, b.Confidence)
			}
		}
	}
}

func TestClusterer_SingletonConfidence(t *testing.T) {
	c := testClusterer()

	primary := c.Cluster([]*model.WitnessSenseUnit{
		witness("wikt", 1, model.TierPrimary, "n1#1", "a thing", "thing"),
	}, model.ModeOpen)
	secondary := c.Cluster([]*model.WitnessSenseUnit{
		witness("llm", 9, model.TierSecondary, "g1#1", "a thing", "thing"),
	}, model.ModeOpen)

	if primary[0].AvgSimilarity != 0 {
		t.Errorf("Expected 0 avg similarity for singleton, got %f", primary[0].AvgSimilarity)
	}
	if primary[0].Confidence <= secondary[0].Confidence {
		t.Errorf("Expected primary singleton to outscore secondary, got %f vs %f",
			primary[0].Confidence, secondary[0].Confidence)
	}
}

func TestClusterer_EmptyInput(t *testing.T) {
	c := testClusterer()

	if buckets := c.Cluster(nil, model.ModeOpen); len(buckets) != 0 {
		t.Errorf("Expected no buckets for no witnesses, got %d", len(buckets))
	}
}

func TestBucketID_StableAcrossMemberOrder(t *testing.T) {
	a := witness("wikt", 1, model.TierPrimary, "n1#1", "x", "x")
	b := witness("jmdict", 2, model.TierSecondary, "e1#1", "y", "y")

	if BucketID([]*model.WitnessSenseUnit{a, b}) != BucketID([]*model.WitnessSenseUnit{b, a}) {
		t.Error("Expected bucket id independent of member order")
	}
	if id := BucketID([]*model.WitnessSenseUnit{a}); len(id) != len("sb-")+12 {
		t.Errorf("Expected sb- prefix with 12 hex chars, got %q", id)
	}
}
