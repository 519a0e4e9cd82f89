package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordforms.dev/declensions/logger"
	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/sink"
	"wordforms.dev/declensions/types"
)

func init() {
	logger.SetOutput(io.Discard)
}

type sinkMock struct {
	calls []string
	fail  bool
}

func (mock *sinkMock) Persist(ctx context.Context, dict *types.GroupedDictionary) (int, error) {
	mock.calls = append(mock.calls, "persist")
	if mock.fail {
		return 0, errors.New("disk full")
	}
	return dict.WordCount(), nil
}

func (mock *sinkMock) Clear() error {
	mock.calls = append(mock.calls, "clear")
	return nil
}

type persistOnlySink struct{}

func (persistOnlySink) Persist(ctx context.Context, dict *types.GroupedDictionary) (int, error) {
	return dict.WordCount(), nil
}

func succeedingPipeline(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
	return types.NewGroupedDictionary().Insert("z", "zena", types.VariantSet{"zena", "zenu"}), nil
}

func failingPipeline(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
	return nil, &pipeline.StageError{Stage: pipeline.StageDeclension, Index: 0, Item: "zena", Err: errors.New("timed out")}
}

func TestConfigDefaultsOverwriteFiles(t *testing.T) {
	require.NoError(t, os.Unsetenv("DFL_APPEND"))
	require.NoError(t, os.Unsetenv("DFL_SINK"))

	var config Config
	require.NoError(t, envconfig.Process("", &config))
	assert.False(t, config.AppendMode)
	assert.Equal(t, sinkFile, config.Sink)
	assert.Equal(t, "res", config.OutputDir)

	config.OutputDir = t.TempDir()
	out, closeSink, err := openSink(config)
	require.NoError(t, err)
	defer closeSink()

	for i := 0; i < 2; i++ {
		dict, err := succeedingPipeline(context.Background(), pipeline.Request{})
		require.NoError(t, err)
		_, err = out.Persist(context.Background(), dict)
		require.NoError(t, err)
	}
	content, err := os.ReadFile(filepath.Join(config.OutputDir, "z.txt"))
	require.NoError(t, err)
	assert.Equal(t, "zena: zena, zenu \n", string(content))
}

func TestOpenSinkUnknown(t *testing.T) {
	_, _, err := openSink(Config{Sink: "ftp"})
	assert.Error(t, err)
}

func TestBuildWritesNothingWhenPipelineFails(t *testing.T) {
	out := &sinkMock{}
	err := build(context.Background(), failingPipeline, out, out, []string{"žena"}, zerolog.Nop())

	var stageErr *pipeline.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, pipeline.StageDeclension, stageErr.Stage)
	assert.Empty(t, out.calls)
}

func TestBuildKeepsPreviousFilesWhenPipelineFails(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "u.txt")
	require.NoError(t, os.WriteFile(previous, []byte("ulica: ulica \n"), 0o644))

	out := sink.NewFileSink(dir, false)
	clr, err := clearerFor(out, true)
	require.NoError(t, err)

	err = build(context.Background(), failingPipeline, out, clr, []string{"žena"}, zerolog.Nop())
	require.Error(t, err)

	content, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, "ulica: ulica \n", string(content))
	_, err = os.Stat(filepath.Join(dir, "z.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildClearsBeforePersisting(t *testing.T) {
	out := &sinkMock{}
	clr, err := clearerFor(out, true)
	require.NoError(t, err)

	require.NoError(t, build(context.Background(), succeedingPipeline, out, clr, []string{"žena"}, zerolog.Nop()))
	assert.Equal(t, []string{"clear", "persist"}, out.calls)
}

func TestBuildWithoutClear(t *testing.T) {
	out := &sinkMock{}
	clr, err := clearerFor(out, false)
	require.NoError(t, err)
	assert.Nil(t, clr)

	require.NoError(t, build(context.Background(), succeedingPipeline, out, clr, []string{"žena"}, zerolog.Nop()))
	assert.Equal(t, []string{"persist"}, out.calls)
}

func TestBuildReportsPersistFailure(t *testing.T) {
	out := &sinkMock{fail: true}
	err := build(context.Background(), succeedingPipeline, out, nil, []string{"žena"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestClearRequiresClearableSink(t *testing.T) {
	_, err := clearerFor(persistOnlySink{}, true)
	assert.Error(t, err)

	clr, err := clearerFor(persistOnlySink{}, false)
	assert.NoError(t, err)
	assert.Nil(t, clr)
}

func TestRestAPIOnlyInWorkerMode(t *testing.T) {
	config := Config{RestAPIActive: true, RestAPIPort: "10000"}

	assert.False(t, config.forMode(false, zerolog.Nop()).RestAPIActive)
	assert.True(t, config.forMode(true, zerolog.Nop()).RestAPIActive)
	assert.True(t, config.RestAPIActive, "receiver must not be modified")
}
