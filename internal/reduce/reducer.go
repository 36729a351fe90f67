package reduce

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sensefold/sensefold/internal/cluster"
	"github.com/sensefold/sensefold/internal/embed"
	"github.com/sensefold/sensefold/internal/extract"
	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/normalize"
	"github.com/sensefold/sensefold/internal/registry"
	"github.com/sensefold/sensefold/internal/similarity"
)

// collapseThreshold hides low-confidence buckets from summarized views.
// Collapsed buckets remain in the full output.
const collapseThreshold = 0.35

// Options selects per-query behavior.
type Options struct {
	Mode model.Mode

	// WithEvidence attaches the full bucket→witness mapping and the
	// registry decision trail. Off by default.
	WithEvidence bool
}

// Reducer sequences extraction, normalization, similarity, clustering
// and constant assignment for one query. It holds no state across
// queries; the registry behind the assigner is the only stateful
// collaborator.
type Reducer struct {
	extractor *extract.Extractor
	clusterer *cluster.Clusterer
	assigner  *registry.Assigner
	embedder  embed.Provider
	logger    *slog.Logger
}

// New creates a reducer. reg and embedder may be nil: reduction then
// yields buckets without constants, and similarity uses token overlap
// only.
func New(reg *registry.Registry, embedder embed.Provider, logger *slog.Logger) *Reducer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	normalizer := normalize.New()
	scorer := similarity.NewScorer()
	return &Reducer{
		extractor: extract.New(normalizer, logger),
		clusterer: cluster.New(scorer),
		assigner:  registry.NewAssigner(reg),
		embedder:  embedder,
		logger:    logger,
	}
}

// Reduce distills one term's parsed entries into ranked sense buckets.
// Everything below the input contract recovers locally: extraction gaps,
// malformed witnesses and registry failures become diagnostics, an empty
// witness set becomes an empty sense list, and unclusterable evidence
// degrades to more, smaller senses — never to no answer.
func (r *Reducer) Reduce(ctx context.Context, doc *extract.Document, opts Options) (*model.Result, error) {
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidMode, opts.Mode)
	}

	// 1. Extract witnesses
	units, diags := r.extractor.Extract(doc)

	// 2. Attach optional embedding vectors
	if r.embedder != nil && len(units) > 0 {
		if err := r.attachVectors(ctx, units); err != nil {
			r.logger.Warn("embedding provider failed, using token overlap only",
				"provider", r.embedder.Name(), "err", err)
			diags = append(diags, model.Diagnostic{
				Kind:   model.DiagEmbeddingUnavailable,
				Detail: err.Error(),
			})
		}
	}

	// 3. Cluster into sense buckets
	buckets := r.clusterer.Cluster(units, opts.Mode)

	// 4. Match or introduce semantic constants
	decisions, assignDiags := r.assigner.Assign(buckets, opts.Mode, doc.Lang)
	diags = append(diags, assignDiags...)

	// 5. Rank for display and mark collapsed buckets
	rank(buckets)
	for _, b := range buckets {
		b.Collapsed = b.Confidence < collapseThreshold
	}

	// 6. Build the result
	result := &model.Result{
		Term:        doc.Term,
		Lang:        doc.Lang,
		Mode:        opts.Mode,
		Senses:      senses(buckets),
		Diagnostics: diags,
		ReducedAt:   time.Now().UTC(),
	}
	if opts.WithEvidence {
		result.Evidence = evidenceView(buckets, decisions)
	}
	return result, nil
}

// attachVectors embeds each witness's raw gloss. Vectors are attached
// before clustering so the scorer stays pure during the pass.
func (r *Reducer) attachVectors(ctx context.Context, units []*model.WitnessSenseUnit) error {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.GlossRaw
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(units) {
		return fmt.Errorf("provider returned %d vectors for %d witnesses", len(vectors), len(units))
	}
	for i, u := range units {
		u.Vector = vectors[i]
	}
	return nil
}

// rank orders buckets for display: independent-source count descending,
// primary presence descending, domain specificity ascending (general
// senses first), bucket id ascending as the stable final tie-break.
func rank(buckets []*model.SenseBucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if sa, sb := sourceCount(a), sourceCount(b); sa != sb {
			return sa > sb
		}
		if a.PrimaryBacked != b.PrimaryBacked {
			return a.PrimaryBacked
		}
		if da, db := domainCount(a), domainCount(b); da != db {
			return da < db
		}
		return a.BucketID < b.BucketID
	})
}

func sourceCount(b *model.SenseBucket) int {
	seen := make(map[string]struct{})
	for _, m := range b.Members {
		seen[m.Source] = struct{}{}
	}
	return len(seen)
}

func domainCount(b *model.SenseBucket) int {
	seen := make(map[string]struct{})
	for _, m := range b.Members {
		for _, d := range m.Metadata.Domains {
			seen[d] = struct{}{}
		}
	}
	return len(seen)
}

func senses(buckets []*model.SenseBucket) []model.Sense {
	out := make([]model.Sense, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, model.Sense{
			SenseID:          b.BucketID,
			SemanticConstant: b.SemanticConstant,
			DisplayGloss:     b.DisplayGloss,
			Confidence:       b.Confidence,
			Witnesses:        witnesses(b),
			Collapsed:        b.Collapsed,
		})
	}
	return out
}

func witnesses(b *model.SenseBucket) []model.Witness {
	out := make([]model.Witness, 0, len(b.Members))
	for _, m := range b.Members {
		out = append(out, model.Witness{
			Source:   m.Source,
			SenseRef: m.SenseRef,
			GlossRaw: m.GlossRaw,
		})
	}
	return out
}

func evidenceView(buckets []*model.SenseBucket, decisions []model.RegistryDecision) *model.EvidenceView {
	view := &model.EvidenceView{Registry: decisions}
	for _, b := range buckets {
		view.Buckets = append(view.Buckets, model.BucketEvidence{
			BucketID:      b.BucketID,
			Members:       witnesses(b),
			AvgSimilarity: b.AvgSimilarity,
			PrimaryBacked: b.PrimaryBacked,
		})
	}
	return view
}
