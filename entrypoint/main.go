package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"wordforms.dev/declensions/api"
	"wordforms.dev/declensions/aztekium"
	"wordforms.dev/declensions/browser"
	"wordforms.dev/declensions/korektor"
	"wordforms.dev/declensions/logger"
	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/redis"
	"wordforms.dev/declensions/s3client"
	"wordforms.dev/declensions/sink"
	"wordforms.dev/declensions/tagger"
	"wordforms.dev/declensions/types"
	"wordforms.dev/declensions/utils"
	"wordforms.dev/declensions/worker"
)

const (
	sinkFile  = "file"
	sinkS3    = "s3"
	sinkRedis = "redis"
)

type Config struct {
	SurfacesPath  string `envconfig:"DFL_SURFACES_PATH" default:""`
	OutputDir     string `envconfig:"DFL_OUTPUT_DIR" default:"res"`
	AppendMode    bool   `envconfig:"DFL_APPEND" default:"false"`
	Sink          string `envconfig:"DFL_SINK" default:"file"`
	S3Prefix      string `envconfig:"DFL_S3_RESULTS_PREFIX" default:"declensions"`
	RedisPrefix   string `envconfig:"DFL_REDIS_PREFIX" default:"declensions"`
	RedisDB       int    `envconfig:"DFL_REDIS_DICTIONARY_DB" default:"1"`
	RestAPIActive bool   `envconfig:"DFL_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"DFL_REST_API_PORT" default:"10000"`
}

const workerRestartDelay = 5 * time.Second

// forMode drops settings the chosen mode cannot honor. A one-shot run exits
// as soon as its output is stored, so it never serves the REST API.
func (config Config) forMode(workerMode bool, dflLogger zerolog.Logger) Config {
	if !workerMode && config.RestAPIActive {
		dflLogger.Warn().Msg("REST API is only served in worker mode, ignoring DFL_REST_API_ACTIVE")
		config.RestAPIActive = false
	}
	return config
}

func main() {
	logger.SetupLogging()
	dflLogger := logger.NewLogger("Main")

	inputPath := flag.String("input", "words.txt", "file with one word or phrase per line")
	clearOutput := flag.Bool("clear", false, "replace previously generated group files once the run succeeded")
	workerMode := flag.Bool("worker", false, "consume run requests from RMQ instead of reading -input")
	surfacesPath := flag.String("surfaces", "", "YAML file overriding the remote surfaces")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		dflLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}
	if *surfacesPath != "" {
		config.SurfacesPath = *surfacesPath
	}
	config = config.forMode(*workerMode, dflLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *workerMode {
		err = runWorker(ctx, config, dflLogger)
	} else {
		err = runOnce(ctx, config, *inputPath, *clearOutput, dflLogger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		stop()
		dflLogger.Fatal().Caller().Err(err).Msg("Declensions run failed")
	}
}

// runOnce reads the input before touching the browser so a missing file
// fails fast.
func runOnce(ctx context.Context, config Config, inputPath string, clearOutput bool, dflLogger zerolog.Logger) error {
	lines, err := utils.ReadLines(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input %s: %w", inputPath, err)
	}
	dflLogger.Info().Msgf("Read %d lines from %s", len(lines), inputPath)

	out, closeSink, err := openSink(config)
	if err != nil {
		return err
	}
	defer closeSink()
	clr, err := clearerFor(out, clearOutput)
	if err != nil {
		return err
	}

	ppln, closeBrowser, err := startPipeline(ctx, config)
	if err != nil {
		return err
	}
	defer closeBrowser()

	return build(ctx, ppln, out, clr, lines, dflLogger)
}

type clearer interface {
	Clear() error
}

// clearerFor returns nil when no clearing was asked for.
func clearerFor(out sink.Sink, clearOutput bool) (clearer, error) {
	if !clearOutput {
		return nil, nil
	}
	clr, ok := out.(clearer)
	if !ok {
		return nil, fmt.Errorf("-clear is only supported with the %s sink", sinkFile)
	}
	return clr, nil
}

// build runs ppln over lines and stores the result in out. Previous output
// is cleared and new output written only after every stage succeeded.
func build(ctx context.Context, ppln pipeline.Pipeline, out sink.Sink, clr clearer, lines []string, dflLogger zerolog.Logger) error {
	started := time.Now()
	dict, err := ppln(ctx, pipeline.Request{Tid: "cli", Lines: lines})
	if err != nil {
		return err
	}
	if clr != nil {
		if err := clr.Clear(); err != nil {
			return fmt.Errorf("failed to clear previous output: %w", err)
		}
		dflLogger.Info().Msg("Cleared previous output")
	}
	stored, err := out.Persist(ctx, dict)
	if err != nil {
		return fmt.Errorf("failed to persist dictionary: %w", err)
	}
	logSummary(dflLogger, dict, stored, time.Since(started))
	return nil
}

func runWorker(ctx context.Context, config Config, dflLogger zerolog.Logger) error {
	ppln, closeBrowser, err := startPipeline(ctx, config)
	if err != nil {
		return err
	}
	defer closeBrowser()
	serveAPI(config, ppln, dflLogger)

	dflLogger.Info().Msg("Start Declensions Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			return fmt.Errorf("could not initialize RMQ worker: %w", err)
		}
		err = rmqWorker.StartWorker(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		dflLogger.Err(err).Msgf("Worker returned with error. Launching new in %s", workerRestartDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(workerRestartDelay):
		}
	}
}

func startPipeline(ctx context.Context, config Config) (pipeline.Pipeline, func(), error) {
	surfaces, err := types.LoadSurfaces(config.SurfacesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load surfaces: %w", err)
	}
	browserConfig, err := browser.ReadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read browser config: %w", err)
	}
	b, err := browser.New(ctx, browserConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	closeBrowser := func() {
		if err := b.Close(); err != nil {
			dflLogger := logger.NewLogger("Main")
			dflLogger.Warn().Err(err).Msg("Failed to close browser")
		}
	}

	ppln, err := pipeline.New(pipeline.Params{
		OpenCorrector: korektor.Opener(b, surfaces.Correction),
		Annotator:     tagger.New(surfaces.Annotation),
		OpenDecliner:  aztekium.Opener(b, surfaces.Declension),
		Delimiter:     surfaces.Declension.Delimiter,
	})
	if err != nil {
		closeBrowser()
		return nil, nil, err
	}
	return ppln, closeBrowser, nil
}

func openSink(config Config) (sink.Sink, func(), error) {
	switch config.Sink {
	case sinkFile:
		return sink.NewFileSink(config.OutputDir, config.AppendMode), func() {}, nil
	case sinkS3:
		client, err := s3client.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		return sink.NewS3Sink(client, config.S3Prefix), client.Close, nil
	case sinkRedis:
		client, err := redis.NewClient(redis.DB(config.RedisDB))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis client: %w", err)
		}
		return sink.NewRedisSink(&client, config.RedisPrefix, config.AppendMode), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown sink %q, expected one of %s, %s, %s", config.Sink, sinkFile, sinkS3, sinkRedis)
}

func serveAPI(config Config, ppln pipeline.Pipeline, dflLogger zerolog.Logger) {
	if !config.RestAPIActive {
		return
	}
	go func() {
		apiRequest := &api.Request{Pipeline: ppln}
		mux := http.NewServeMux()
		mux.HandleFunc("/", apiRequest.ProcessData)
		host := fmt.Sprintf(":%s", config.RestAPIPort)
		dflLogger.Info().Msgf("REST API on %s", host)
		err := http.ListenAndServe(host, mux)
		dflLogger.Err(err).Msg("REST API stopped with error")
	}()
}

func logSummary(dflLogger zerolog.Logger, dict *types.GroupedDictionary, stored int, took time.Duration) {
	for _, key := range dict.Keys() {
		group, _ := dict.Group(key)
		dflLogger.Debug().Str("group", key).Int("words", group.Len()).Msg("Group stored")
	}
	dflLogger.Info().
		Int("groups", len(dict.Keys())).
		Int("words", stored).
		Dur("took", took).
		Msg("Run finished")
}
