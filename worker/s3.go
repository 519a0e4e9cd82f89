package worker

import (
	"context"

	"wordforms.dev/declensions/s3client"
	"wordforms.dev/declensions/sink"
	"wordforms.dev/declensions/types"
)

type s3Transactions interface {
	getInput(ctx context.Context, task *Task) ([]byte, error)
	saveResults(ctx context.Context, task *Task, dict *types.GroupedDictionary) (int, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) getInput(ctx context.Context, task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(ctx, task.runTask.InputKey)
}

func (wrapper *s3ClientWrapper) saveResults(ctx context.Context, task *Task, dict *types.GroupedDictionary) (int, error) {
	return sink.NewS3Sink(wrapper.s3Client, resultsPrefix(task)).Persist(ctx, dict)
}
