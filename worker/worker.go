package worker

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"wordforms.dev/declensions/logger"
	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/rmq"
	"wordforms.dev/declensions/s3client"
	"wordforms.dev/declensions/tasks"
)

type Config struct {
	TaskMaxRetries int `envconfig:"DFL_RETRY_TASK_COUNT_MAX" default:"3"`
}

type Worker struct {
	config    Config
	redis     redisTransactions
	s3        s3Transactions
	rmq       rmqTransactions
	dflLogger *zerolog.Logger
	ppln      pipeline.Pipeline
}

func New(ppln pipeline.Pipeline) (*Worker, error) {
	dflLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		dflLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:    config,
		dflLogger: &dflLogger,
		ppln:      ppln,
	}
	if err := worker.refreshRMQClient(); err != nil {
		dflLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.refreshS3Client(); err != nil {
		dflLogger.Error().Err(err).Msg("Could not create S3 client")
		worker.Close()
		return nil, err
	}
	if err := worker.refreshRedisClients(); err != nil {
		dflLogger.Error().Err(err).Msg("Could not create Redis client")
		worker.Close()
		return nil, err
	}
	return &worker, nil
}

// StartWorker handles run requests one by one until ctx is done or the RMQ
// connection cannot be restored.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	for {
		streams := worker.rmq.streams()
		var lost string
		select {
		case <-ctx.Done():
			worker.dflLogger.Info().Msg("Worker stopped")
			return ctx.Err()
		case delivery, ok := <-streams.deliveries:
			if ok {
				worker.processMessage(ctx, delivery)
				continue
			}
			lost = "run requests channel closed"
		case rmqErr := <-streams.notifyErrors:
			lost = describeConnectionLoss("notifications", rmqErr)
		case rmqErr := <-streams.requestErrors:
			lost = describeConnectionLoss("requests", rmqErr)
		}
		worker.dflLogger.Error().Str("reason", lost).Msg("Lost RMQ connection, refreshing client")
		if err := worker.refreshRMQClient(); err != nil {
			return fmt.Errorf("%s and RMQ refresh failed: %w", lost, err)
		}
	}
}

func describeConnectionLoss(connection string, rmqErr *amqp.Error) string {
	if rmqErr == nil {
		return fmt.Sprintf("%s connection closed", connection)
	}
	return fmt.Sprintf("%s connection failed: %s", connection, rmqErr.Error())
}

func (worker *Worker) Close() {
	if worker.redis != nil {
		worker.redis.close()
	}
	if worker.s3 != nil {
		worker.s3.close()
	}
	if worker.rmq != nil {
		worker.rmq.close()
	}
}

func (worker *Worker) refreshRedisClients() error {
	worker.dflLogger.Info().Msg("Refreshing Redis client")
	if oldClient := worker.redis; oldClient != nil {
		defer oldClient.close()
	}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		worker.dflLogger.Err(err).Msg("Failed to refresh Redis client")
		return err
	}
	worker.redis = &redisClientWrapper{&tasksClient}
	worker.dflLogger.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) refreshRMQClient() error {
	worker.dflLogger.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		defer oldClient.close()
	}
	config, err := rmq.ReadConfig()
	if err != nil {
		return err
	}
	rmqClient, err := rmq.NewClient(config)
	if err != nil {
		worker.dflLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = &rmqClientWrapper{rmqClient}
	worker.dflLogger.Info().Msg("Refreshed RMQ client")
	return nil
}

func (worker *Worker) refreshS3Client() error {
	worker.dflLogger.Info().Msg("Refreshing S3 client")
	if oldClient := worker.s3; oldClient != nil {
		defer oldClient.close()
	}
	s3Client, err := s3client.New()
	if err != nil {
		worker.dflLogger.Err(err).Msg("Failed to refresh S3 client")
		return err
	}
	worker.s3 = &s3ClientWrapper{s3Client}
	worker.dflLogger.Info().Msg("Refreshed S3 client")
	return nil
}
