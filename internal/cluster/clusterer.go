package cluster

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/similarity"
)

// Mode thresholds and the confidence formula. Fixed constants: identical
// witness sets and mode must produce byte-identical bucket membership.
const (
	// openThreshold merges aggressively for learner-facing brevity.
	openThreshold = 0.30

	// skepticThreshold is stricter; skeptic merges additionally require a
	// primary-source member in the target bucket.
	skepticThreshold = 0.55

	// confidence = confBase + confPerMember·min(members−1, confMemberCap)
	//            + confPrimaryBonus·primaryBacked + confSimWeight·avgSim
	confBase         = 0.20
	confPerMember    = 0.10
	confMemberCap    = 3
	confPrimaryBonus = 0.20
	confSimWeight    = 0.40
)

// Clusterer groups witnesses into sense buckets with a single
// deterministic greedy pass. No state survives between queries.
type Clusterer struct {
	scorer *similarity.Scorer
}

// New creates a clusterer.
func New(scorer *similarity.Scorer) *Clusterer {
	return &Clusterer{scorer: scorer}
}

// Cluster assigns every witness to exactly one bucket.
//
// The pass sorts witnesses by (source priority, source id, sense_ref,
// joined gloss key) — that ordering, not insertion order, is the only
// source of tie-breaking. The first unassigned witness opens a bucket;
// each later witness joins the open bucket holding its highest-similarity
// member if that similarity clears the mode threshold, otherwise it opens
// its own bucket. Ties between buckets resolve to the earliest-opened
// one. There is no backtracking and no re-clustering.
func (c *Clusterer) Cluster(units []*model.WitnessSenseUnit, mode model.Mode) []*model.SenseBucket {
	if len(units) == 0 {
		return nil
	}

	ordered := make([]*model.WitnessSenseUnit, len(units))
	copy(ordered, units)
	sort.Slice(ordered, func(i, j int) bool {
		return orderKey(ordered[i]) < orderKey(ordered[j])
	})

	threshold := openThreshold
	if mode == model.ModeSkeptic {
		threshold = skepticThreshold
	}

	var buckets [][]*model.WitnessSenseUnit
	for _, unit := range ordered {
		best := -1
		bestSim := 0.0
		for bi, members := range buckets {
			for _, member := range members {
				sim := c.scorer.Score(unit, member)
				if sim > bestSim {
					bestSim = sim
					best = bi
				}
			}
		}

		if best >= 0 && bestSim >= threshold {
			if mode == model.ModeSkeptic && !anyPrimary(buckets[best]) {
				// Strict mode refuses merges into buckets with no
				// authoritative witness, whatever the similarity says.
				buckets = append(buckets, []*model.WitnessSenseUnit{unit})
				continue
			}
			buckets[best] = append(buckets[best], unit)
			continue
		}
		buckets = append(buckets, []*model.WitnessSenseUnit{unit})
	}

	out := make([]*model.SenseBucket, 0, len(buckets))
	for _, members := range buckets {
		out = append(out, c.finalize(members))
	}
	return out
}

// finalize derives the bucket artifact from its members.
func (c *Clusterer) finalize(members []*model.WitnessSenseUnit) *model.SenseBucket {
	rep := members[0]
	for _, m := range members[1:] {
		if repOrderKey(m) < repOrderKey(rep) {
			rep = m
		}
	}

	avg := c.avgSimilarity(members)
	primary := anyPrimary(members)

	confidence := confBase +
		confPerMember*float64(min(len(members)-1, confMemberCap)) +
		confSimWeight*avg
	if primary {
		confidence += confPrimaryBonus
	}
	if confidence > 1 {
		confidence = 1
	}

	return &model.SenseBucket{
		BucketID:      BucketID(members),
		Members:       members,
		DisplayGloss:  rep.GlossRaw,
		DisplayKey:    rep.GlossKey,
		Confidence:    confidence,
		PrimaryBacked: primary,
		AvgSimilarity: avg,
	}
}

// avgSimilarity is the mean pairwise member similarity; 0 for singletons.
func (c *Clusterer) avgSimilarity(members []*model.WitnessSenseUnit) float64 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += c.scorer.Score(members[i], members[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// BucketID derives the deterministic bucket identifier from a stable
// ordering of member identities.
func BucketID(members []*model.WitnessSenseUnit) string {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key()
	}
	sort.Strings(keys)
	sum := sha256.Sum256([]byte(strings.Join(keys, "\x1e")))
	return "sb-" + hex.EncodeToString(sum[:])[:12]
}

// orderKey is the fixed clustering sort key. Priorities are zero-padded
// so lexicographic order matches numeric order.
func orderKey(w *model.WitnessSenseUnit) string {
	return padPriority(w.SourcePriority) + "\x1f" + w.Source + "\x1f" + w.SenseRef + "\x1f" + strings.Join(w.GlossKey, " ")
}

// repOrderKey picks the display representative: best source priority,
// then source id, then lowest sense_ref.
func repOrderKey(w *model.WitnessSenseUnit) string {
	return padPriority(w.SourcePriority) + "\x1f" + w.Source + "\x1f" + w.SenseRef
}

func padPriority(p int) string {
	if p < 0 {
		p = 0
	}
	return fmt.Sprintf("%010d", p)
}

func anyPrimary(members []*model.WitnessSenseUnit) bool {
	for _, m := range members {
		if m.IsPrimary() {
			return true
		}
	}
	return false
}
