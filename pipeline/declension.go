package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"wordforms.dev/declensions/normalize"
	"wordforms.dev/declensions/types"
)

// Decliner returns the raw result cells the generation surface shows for a
// lemma. A cell may hold several delimiter-joined forms.
type Decliner interface {
	Decline(ctx context.Context, lemma string) ([]string, error)
	Close() error
}

type OpenDecliner func(ctx context.Context) (Decliner, error)

// Decline builds the grouped dictionary for lemmas through one session.
func Decline(ctx context.Context, open OpenDecliner, lemmas []string, delimiter string) (dict *types.GroupedDictionary, err error) {
	if delimiter == "" {
		delimiter = types.DefaultVariantsDelimiter
	}
	dict = types.NewGroupedDictionary()
	if len(lemmas) == 0 {
		return dict, nil
	}
	log := zerolog.Ctx(ctx)

	decliner, err := open(ctx)
	if err != nil {
		return nil, sessionError(StageDeclension, err)
	}
	defer closeSession(log, StageDeclension, decliner.Close)

	for i, lemma := range lemmas {
		cells, err := decliner.Decline(ctx, lemma)
		if err != nil {
			return nil, itemError(StageDeclension, i, lemma, err)
		}
		collector := newVariantCollector()
		for _, cell := range cells {
			collector.add(cell, delimiter)
		}
		key := normalize.FirstRune(lemma)
		word := normalize.String(lemma)
		dict.Insert(key, word, collector.set)
		log.Debug().
			Str("lemma", lemma).
			Int("cells", len(cells)).
			Int("variants", len(collector.set)).
			Msg("Declined lemma")
	}
	return dict, nil
}
