package tasks

import (
	"context"

	"wordforms.dev/declensions/redis"
)

const RunsDB redis.DB = 0

type TaskStatus string

const (
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

// RunTask is the state of one dictionary build requested through the queue.
type RunTask struct {
	InputKey      string     `json:"input_key"`
	ResultsPrefix string     `json:"results_prefix"`
	UserCanceled  bool       `json:"user_canceled"`
	Status        TaskStatus `json:"status"`
	Attempts      int        `json:"attempts"`
	StartedAt     *string    `json:"started_at"`
	CompletedAt   *string    `json:"completed_at"`
	StoredWords   int        `json:"stored_words"`
	ErrorMessages []string   `json:"error_messages"`
}

type RunTasks struct {
	client redis.Client
}

func (tasks RunTasks) Get(ctx context.Context, redisKey string) (*RunTask, error) {
	var task RunTask
	if err := tasks.client.GetDoc(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks RunTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *RunTask)) error {
	var task RunTask
	return tasks.client.UpdateDoc(ctx, redisKey, &task, func() {
		updateFunc(&task)
	})
}
