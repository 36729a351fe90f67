package extract

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/normalize"
)

// Extractor converts parsed entries into witness sense units.
type Extractor struct {
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

// New creates an extractor. A nil logger disables logging.
func New(n *normalize.Normalizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{normalizer: n, logger: logger}
}

// Extract walks every source entry and yields exactly one witness per
// discrete sense: no merging and no dropping, even for apparent
// duplicates. Entries with no senses are recorded as extraction gaps, and
// individual malformed senses (missing ref, empty text) are rejected with
// a diagnostic; neither aborts the rest of the set. Sense refs are
// deterministic given the same entry: entry_id "#" ref.
func (e *Extractor) Extract(doc *Document) ([]*model.WitnessSenseUnit, []model.Diagnostic) {
	var units []*model.WitnessSenseUnit
	var diags []model.Diagnostic

	for _, src := range doc.Sources {
		tier := model.TierSecondary
		if src.Primary {
			tier = model.TierPrimary
		}

		for _, entry := range src.Entries {
			if len(entry.Senses) == 0 {
				e.logger.Warn("entry yielded no witnesses",
					"source", src.ID, "entry", entry.EntryID)
				diags = append(diags, model.Diagnostic{
					Kind:   model.DiagExtractionGap,
					Source: src.ID,
					Detail: fmt.Sprintf("entry %q has no sense text", entry.EntryID),
				})
				continue
			}

			for _, sense := range entry.Senses {
				ref := senseRef(entry.EntryID, sense.Ref)
				if sense.Ref == "" || strings.TrimSpace(sense.Text) == "" {
					diags = append(diags, model.Diagnostic{
						Kind:     model.DiagMalformedWitness,
						Source:   src.ID,
						SenseRef: ref,
						Detail:   malformedDetail(sense),
					})
					continue
				}

				units = append(units, &model.WitnessSenseUnit{
					Source:         src.ID,
					SourcePriority: src.Priority,
					Tier:           tier,
					SenseRef:       ref,
					GlossRaw:       sense.Text,
					GlossKey:       e.normalizer.Key(sense.Text, doc.Lang),
					Metadata: model.Metadata{
						PartOfSpeech:     sense.PartOfSpeech,
						Domains:          sense.Domains,
						Registers:        sense.Registers,
						SourceConfidence: sense.Confidence,
					},
				})
			}
		}
	}

	return units, diags
}

func senseRef(entryID, ref string) string {
	if ref == "" {
		return entryID + "#?"
	}
	return entryID + "#" + ref
}

func malformedDetail(s Sense) string {
	if s.Ref == "" {
		return "missing sense ref"
	}
	return "empty gloss text"
}
