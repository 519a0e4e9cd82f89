package pipeline

import (
	"context"
	"errors"

	"wordforms.dev/declensions/logger"
	"wordforms.dev/declensions/types"
)

// Pipeline turns the lines of a request into a grouped dictionary.
type Pipeline func(ctx context.Context, request Request) (*types.GroupedDictionary, error)

type Params struct {
	OpenCorrector OpenCorrector
	Annotator     Annotator
	OpenDecliner  OpenDecliner
	Delimiter     string
}

// New returns a pipeline whose stages run one after another, each consuming
// the complete output of the previous one. Concurrent calls are serialized;
// a call waiting for its turn returns early when ctx is done.
func New(params Params) (Pipeline, error) {
	switch {
	case params.OpenCorrector == nil:
		return nil, errors.New("correction session opener is not set")
	case params.Annotator == nil:
		return nil, errors.New("annotator is not set")
	case params.OpenDecliner == nil:
		return nil, errors.New("declension session opener is not set")
	}
	dflLogger := logger.NewLogger("Pipeline")
	running := make(chan struct{}, 1)

	return func(ctx context.Context, request Request) (*types.GroupedDictionary, error) {
		select {
		case running <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		defer func() { <-running }()

		pplnLog := dflLogger.With().Str("tid", request.Tid).Logger()
		ctx = pplnLog.WithContext(ctx)
		pplnLog.Info().Msgf("Checking %d words", len(request.Lines))

		corrected, err := Correct(ctx, params.OpenCorrector, request.Lines)
		if err != nil {
			pplnLog.Err(err).Msg("Correction stage failed")
			return nil, err
		}
		pplnLog.Info().Msgf("Got punctuation for %d words", len(corrected))

		lemmas, err := Lemmatize(ctx, params.Annotator, corrected)
		if err != nil {
			pplnLog.Err(err).Msg("Lemmatization stage failed")
			return nil, err
		}
		pplnLog.Info().Msgf("Got lemma for %d words", len(lemmas))

		dict, err := Decline(ctx, params.OpenDecliner, lemmas, params.Delimiter)
		if err != nil {
			pplnLog.Err(err).Msg("Declension stage failed")
			return nil, err
		}
		pplnLog.Info().
			Int("groups", len(dict.Keys())).
			Int("words", dict.WordCount()).
			Msg("Got declension result")
		return dict, nil
	}, nil
}
