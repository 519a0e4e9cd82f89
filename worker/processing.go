package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/tasks"
	"wordforms.dev/declensions/utils"
)

type Message struct {
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery  *amqp.Delivery
	runTask   *tasks.RunTask
	message   *Message
	redisKey  string
	dflLogger *zerolog.Logger
}

func (worker *Worker) processMessage(ctx context.Context, delivery amqp.Delivery) {
	rejectLogger := worker.dflLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(ctx, &delivery)
	if err != nil {
		worker.dflLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(&delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(ctx, task); err != nil {
		worker.rmq.rejectDelivery(&delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.notify(task, *task.message); err != nil {
		task.dflLogger.Err(err).Msg("Got error while sending message to notifications queue")
		worker.rmq.rejectDelivery(&delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(&delivery); err != nil {
		task.dflLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.dflLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	runTask, err := worker.redis.getRunTask(ctx, message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query run task for message, got error %w", err)
	}
	taskLogger := worker.dflLogger.With().Str("tid", message.RedisKey).Logger()
	return &Task{
		delivery:  delivery,
		runTask:   runTask,
		redisKey:  message.RedisKey,
		message:   &message,
		dflLogger: &taskLogger,
	}, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.dflLogger.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(ctx, task); err != nil {
		task.dflLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update RunTask: %w", err)
	}
	stored, err := worker.runPipeline(ctx, task)
	if err != nil {
		task.dflLogger.Err(err).Msg("Got error while running pipeline")
		return worker.redis.onTaskFailedWithError(ctx, task, err)
	}
	task.dflLogger.Info().Msgf("Stored %d words, marking task as complete", stored)
	if err = worker.redis.onTaskComplete(ctx, task, stored); err != nil {
		task.dflLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(ctx context.Context, task *Task) (stored int, err error) {
	defer utils.RecoverWithError(&err)
	task.dflLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.runTask.Attempts)
	data, err := worker.s3.getInput(ctx, task)
	if err != nil {
		task.dflLogger.Err(err).Caller().Msg("Could not fetch input from s3")
		return 0, fmt.Errorf("failed fetch input from s3: %w", err)
	}
	lines, err := utils.SplitLines(data)
	if err != nil {
		return 0, fmt.Errorf("failed to read input lines: %w", err)
	}
	dict, err := worker.ppln(ctx, pipeline.Request{Tid: task.redisKey, Lines: lines})
	if err != nil {
		return 0, err
	}
	if dict == nil {
		return 0, errors.New("pipeline returned no dictionary")
	}
	task.dflLogger.Info().Msg("Finished pipeline, saving results to s3")
	return worker.s3.saveResults(ctx, task, dict)
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	runTask := task.runTask
	taskLogger := task.dflLogger

	if runTask.Status.Complete() {
		taskLogger.Info().Msg("Task is already done (might indicate issue acking message with RMQ). Sending notification.")
		return false, nil
	}
	if runTask.UserCanceled {
		taskLogger.Info().Msg("Run was canceled, no need to perform this task. Sending notification.")
		return false, worker.redis.onTaskCancelled(ctx, task)
	}
	if runTask.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Task has exceeded retries. Sending notification.")
		return false, worker.redis.onTaskExceededRetries(ctx, task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
