package pipeline

import (
	"context"

	"github.com/rs/zerolog"
)

// Annotator returns the base form of a line. An empty string is a valid
// answer when the service has no token for it.
type Annotator interface {
	Lemma(ctx context.Context, line string) (string, error)
}

func Lemmatize(ctx context.Context, annotator Annotator, lines []string) ([]string, error) {
	log := zerolog.Ctx(ctx)
	result := make([]string, 0, len(lines))
	for i, line := range lines {
		lemma, err := annotator.Lemma(ctx, line)
		if err != nil {
			return nil, itemError(StageLemmatization, i, line, err)
		}
		if lemma == "" {
			log.Warn().Int("index", i).Str("line", line).Msg("Annotation service returned no lemma")
		}
		result = append(result, lemma)
	}
	return result, nil
}
