package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"wordforms.dev/declensions/logger"
	"wordforms.dev/declensions/types"
)

// FileSink writes every group to <Dir>/<key>.txt.
type FileSink struct {
	Dir       string
	Append    bool
	dflLogger zerolog.Logger
}

func NewFileSink(dir string, appendMode bool) *FileSink {
	return &FileSink{
		Dir:       dir,
		Append:    appendMode,
		dflLogger: logger.NewLogger("FileSink"),
	}
}

func (s *FileSink) Persist(ctx context.Context, dict *types.GroupedDictionary) (int, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return 0, err
	}
	counter := 0
	for _, key := range dict.Keys() {
		if err := ctx.Err(); err != nil {
			return counter, err
		}
		group, _ := dict.Group(key)
		path := filepath.Join(s.Dir, FileName(key))
		if err := s.write(path, Render(group)); err != nil {
			s.dflLogger.Err(err).Str("path", path).Msg("Failed to write group file")
			return counter, err
		}
		counter += group.Len()
	}
	s.dflLogger.Info().Str("dir", s.Dir).Msgf("Stored %d words", counter)
	return counter, nil
}

func (s *FileSink) write(path string, content []byte) error {
	if !s.Append {
		return os.WriteFile(path, content, 0o644)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err = file.Write(content); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Clear removes the group files left by previous runs. A missing directory is
// not an error.
func (s *FileSink) Clear() error {
	entries, err := os.ReadDir(s.Dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil {
			return err
		}
		removed++
	}
	s.dflLogger.Info().Str("dir", s.Dir).Int("removed", removed).Msg("Cleared output directory")
	return nil
}
