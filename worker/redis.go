package worker

import (
	"context"
	"fmt"

	"wordforms.dev/declensions/tasks"
)

type redisTransactions interface {
	getRunTask(ctx context.Context, redisKey string) (*tasks.RunTask, error)
	onTaskStarted(ctx context.Context, task *Task) error
	onTaskCancelled(ctx context.Context, task *Task) error
	onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error
	onTaskFailedWithError(ctx context.Context, task *Task, err error) error
	onTaskComplete(ctx context.Context, task *Task, storedWords int) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) getRunTask(ctx context.Context, redisKey string) (*tasks.RunTask, error) {
	return wrapper.tasksClient.Runs.Get(ctx, redisKey)
}

func (wrapper *redisClientWrapper) onTaskStarted(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Runs.Update(ctx, task.redisKey, func(runTask *tasks.RunTask) {
		runTask.Status = tasks.TaskStatusStarted
		runTask.Attempts += 1
		runTask.StartedAt = runTimestamp()
		runTask.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Runs.Update(ctx, task.redisKey, func(runTask *tasks.RunTask) {
		runTask.Status = tasks.TaskStatusCanceled
		runTask.CompletedAt = runTimestamp()
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	return wrapper.tasksClient.Runs.Update(ctx, task.redisKey, func(runTask *tasks.RunTask) {
		runTask.Status = tasks.TaskStatusCompletedFailure
		runTask.CompletedAt = runTimestamp()
		runTask.ErrorMessages = append(
			runTask.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d)", runTask.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	return wrapper.tasksClient.Runs.Update(ctx, task.redisKey, func(runTask *tasks.RunTask) {
		runTask.Status = tasks.TaskStatusFailed
		runTask.CompletedAt = runTimestamp()
		runTask.ErrorMessages = append(runTask.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(ctx context.Context, task *Task, storedWords int) error {
	return wrapper.tasksClient.Runs.Update(ctx, task.redisKey, func(runTask *tasks.RunTask) {
		if !runTask.Status.Complete() {
			runTask.Status = tasks.TaskStatusCompletedSuccess
		}
		runTask.CompletedAt = runTimestamp()
		runTask.ResultsPrefix = resultsPrefix(task)
		runTask.StoredWords = storedWords
	})
}
