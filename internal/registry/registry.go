package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/normalize"
	"github.com/sensefold/sensefold/internal/similarity"
)

// ErrNoContentTokens reports a bucket whose display key holds nothing a
// constant id could be derived from (e.g. a gloss of pure punctuation).
// It is a property of the bucket, not a store failure.
var ErrNoContentTokens = errors.New("no content tokens to derive a constant id")

// Matching and introduction thresholds. Fixed constants, distinct from
// (and stricter than) the clustering thresholds.
const (
	// matchThreshold is the minimum similarity between a bucket's display
	// gloss and a constant's label+description to reuse that constant.
	matchThreshold = 0.65

	// introduceConfidence is the minimum bucket confidence for minting a
	// new provisional constant.
	introduceConfidence = 0.35

	// constantIDTokens is how many leading content tokens of the
	// representative gloss form a derived constant id.
	constantIDTokens = 3
)

// Registry matches sense buckets against the persistent constant store
// and introduces provisional constants when nothing fits. It is an
// explicit service object: all mutation routes through the store's
// atomic upsert, and there is no package-level instance.
type Registry struct {
	store      Store
	scorer     *similarity.Scorer
	normalizer *normalize.Normalizer

	mu        sync.Mutex
	constants map[string]*model.SemanticConstant
	loaded    bool
}

// New creates a registry service over the given store.
func New(store Store, scorer *similarity.Scorer, normalizer *normalize.Normalizer) *Registry {
	return &Registry{
		store:      store,
		scorer:     scorer,
		normalizer: normalizer,
	}
}

// load populates the in-memory view once per registry instance.
func (r *Registry) load() error {
	if r.loaded {
		return nil
	}
	constants, err := r.store.Load()
	if err != nil {
		return err
	}
	r.constants = constants
	r.loaded = true
	return nil
}

// Match compares the bucket's display gloss against every live constant
// using the same token similarity mechanism as witness scoring, applied
// to the constant's canonical label and description. It returns the best
// constant at or above the match threshold, or nil.
func (r *Registry) Match(bucket *model.SenseBucket, lang string) (*model.SemanticConstant, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(r.constants))
	for id := range r.constants {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var best *model.SemanticConstant
	bestSim := 0.0
	for _, id := range ids {
		c := r.constants[id]
		if !c.Live() {
			continue
		}
		key := r.normalizer.Key(c.CanonicalLabel+" "+c.Description, lang)
		sim := r.scorer.ScoreTokens(bucket.DisplayKey, key)
		if sim > bestSim {
			bestSim = sim
			best = c
		}
	}

	if best == nil || bestSim < matchThreshold {
		return nil, bestSim, nil
	}
	return best, bestSim, nil
}

// Introduce derives a deterministic provisional constant from the
// bucket's representative gloss and upserts it. Introducing the same
// bucket content twice yields the same constant id, so a retried query
// overwrites rather than appends.
func (r *Registry) Introduce(bucket *model.SenseBucket) (*model.SemanticConstant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}

	id := DeriveConstantID(bucket.DisplayKey)
	if id == "" {
		return nil, fmt.Errorf("bucket %s: %w", bucket.BucketID, ErrNoContentTokens)
	}

	// An existing curated constant under the derived id wins outright;
	// curation is locked against pipeline writes.
	if existing, ok := r.constants[id]; ok && existing.Status == model.StatusCurated {
		return existing, nil
	}

	now := time.Now().UTC()
	c := &model.SemanticConstant{
		ConstantID:     id,
		CanonicalLabel: bucket.DisplayGloss,
		Domains:        bucketDomains(bucket),
		Status:         model.StatusProvisional,
		CreatedFrom:    memberRefs(bucket),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing, ok := r.constants[id]; ok {
		c.CreatedAt = existing.CreatedAt
	}

	if err := r.store.Upsert(c); err != nil {
		return nil, err
	}
	r.constants[id] = c
	return c, nil
}

// Promote marks a constant as curated. Curated constants are locked: the
// reduction pipeline can reference but never rewrite them.
func (r *Registry) Promote(id string) (*model.SemanticConstant, error) {
	return r.mutate(id, func(c *model.SemanticConstant) error {
		c.Status = model.StatusCurated
		return nil
	})
}

// Rename changes a constant's canonical label.
func (r *Registry) Rename(id, label string) (*model.SemanticConstant, error) {
	if strings.TrimSpace(label) == "" {
		return nil, fmt.Errorf("empty label")
	}
	return r.mutate(id, func(c *model.SemanticConstant) error {
		c.CanonicalLabel = label
		return nil
	})
}

// Merge records that loser is superseded by winner. The losing record is
// kept (never deleted) with a supersede marker, preserving the audit
// trail for queries that assigned it earlier.
func (r *Registry) Merge(loserID, winnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return err
	}
	if loserID == winnerID {
		return fmt.Errorf("cannot merge %s into itself", loserID)
	}
	winner, ok := r.constants[winnerID]
	if !ok {
		return fmt.Errorf("unknown constant: %s", winnerID)
	}
	if !winner.Live() {
		return fmt.Errorf("merge target %s is itself superseded", winnerID)
	}
	loser, ok := r.constants[loserID]
	if !ok {
		return fmt.Errorf("unknown constant: %s", loserID)
	}

	loser.SupersededBy = winnerID
	loser.UpdatedAt = time.Now().UTC()
	return r.store.Upsert(loser)
}

// Get returns one constant by id.
func (r *Registry) Get(id string) (*model.SemanticConstant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}
	c, ok := r.constants[id]
	if !ok {
		return nil, fmt.Errorf("unknown constant: %s", id)
	}
	return c, nil
}

// List returns all constants sorted by id.
func (r *Registry) List() ([]*model.SemanticConstant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]*model.SemanticConstant, 0, len(r.constants))
	for _, c := range r.constants {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConstantID < out[j].ConstantID })
	return out, nil
}

func (r *Registry) mutate(id string, fn func(*model.SemanticConstant) error) (*model.SemanticConstant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}
	c, ok := r.constants[id]
	if !ok {
		return nil, fmt.Errorf("unknown constant: %s", id)
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	if err := r.store.Upsert(c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeriveConstantID builds the human-legible constant id: uppercase
// snake-case of the first content tokens of the representative gloss key.
// The transform is fixed so retried introductions collide on purpose.
func DeriveConstantID(displayKey []string) string {
	parts := make([]string, 0, constantIDTokens)
	for _, tok := range displayKey {
		cleaned := asciiUpper(tok)
		if cleaned == "" {
			continue
		}
		parts = append(parts, cleaned)
		if len(parts) == constantIDTokens {
			break
		}
	}
	return strings.Join(parts, "_")
}

// asciiUpper uppercases letters and digits and drops everything else,
// keeping ids portable across stores and filesystems.
func asciiUpper(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

func memberRefs(bucket *model.SenseBucket) []string {
	refs := make([]string, 0, len(bucket.Members))
	for _, m := range bucket.Members {
		refs = append(refs, m.SenseRef)
	}
	sort.Strings(refs)
	return refs
}

func bucketDomains(bucket *model.SenseBucket) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range bucket.Members {
		for _, d := range m.Metadata.Domains {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}
