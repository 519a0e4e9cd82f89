package pipeline

import (
	"context"

	"github.com/rs/zerolog"
)

// Corrector returns the best punctuation and spelling suggestion for a line.
type Corrector interface {
	Correct(ctx context.Context, line string) (string, error)
	Close() error
}

// OpenCorrector acquires the long-lived session used by the correction stage.
type OpenCorrector func(ctx context.Context) (Corrector, error)

// Correct maps every line to its corrected form through one session. The
// first failing line aborts the stage.
func Correct(ctx context.Context, open OpenCorrector, lines []string) (result []string, err error) {
	result = make([]string, 0, len(lines))
	if len(lines) == 0 {
		return result, nil
	}
	log := zerolog.Ctx(ctx)

	corrector, err := open(ctx)
	if err != nil {
		return nil, sessionError(StageCorrection, err)
	}
	defer closeSession(log, StageCorrection, corrector.Close)

	for i, line := range lines {
		corrected, err := corrector.Correct(ctx, line)
		if err != nil {
			return nil, itemError(StageCorrection, i, line, err)
		}
		log.Debug().Str("line", line).Str("corrected", corrected).Msg("Corrected line")
		result = append(result, corrected)
	}
	return result, nil
}

func closeSession(log *zerolog.Logger, stage string, closeFunc func() error) {
	if err := closeFunc(); err != nil {
		log.Warn().Err(err).Str("stage", stage).Msg("Failed to close session")
	}
}
