package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/tasks"
	"wordforms.dev/declensions/types"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln     pipeline.Pipeline
	config   pipelineMockConfig
	calls    pipelineCall
	received []string
}

type pipelineMockConfig struct {
	fail  bool
	panic bool
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getRunTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getRunTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	notify              failingMethod
	acknowledgeDelivery failingMethod
	streams             rmqStreams
	onAcknowledge       func()
}

type rmqMockCalls struct {
	notify              bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	getInput    withValue
	saveResults failingMethod
}

type s3MockCalls struct {
	getInput    bool
	saveResults bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	mock.ppln = func(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
		mock.calls.pipeline = true
		mock.received = request.Lines
		if mock.config.panic {
			panic("browser crashed")
		}
		if mock.config.fail {
			return nil, &pipeline.StageError{Stage: pipeline.StageLemmatization, Index: 1, Item: "ulica", Err: errors.New("malformed")}
		}
		return types.NewGroupedDictionary().Insert("z", "zena", types.VariantSet{"zena", "zenu"}), nil
	}
	return &mock
}

func (mock *redisMock) getRunTask(ctx context.Context, redisKey string) (*tasks.RunTask, error) {
	mock.calls.getRunTask = true
	if mock.config.getRunTask.fail {
		return nil, errors.New("failed to get run task")
	}
	switch value := mock.config.getRunTask.returnedValue.(type) {
	case tasks.RunTask:
		return &value, nil
	default:
		return &tasks.RunTask{InputKey: "input/words.txt"}, nil
	}
}

func (mock *redisMock) onTaskStarted(ctx context.Context, task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update run task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(ctx context.Context, task *Task) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update run task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update run task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update run task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(ctx context.Context, task *Task, storedWords int) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update run task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, dflLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) streams() rmqStreams {
	return mock.config.streams
}

func (mock *rmqMock) notify(task *Task, message Message) error {
	mock.calls.notify = true
	if mock.config.notify.fail {
		return errors.New("failed to notify")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.onAcknowledge != nil {
		mock.config.onAcknowledge()
	}
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getInput(ctx context.Context, task *Task) ([]byte, error) {
	mock.calls.getInput = true
	if mock.config.getInput.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	switch value := mock.config.getInput.returnedValue.(type) {
	case []byte:
		return value, nil
	default:
		return []byte("žena\n\nulica\n"), nil
	}
}

func (mock *s3Mock) saveResults(ctx context.Context, task *Task, dict *types.GroupedDictionary) (int, error) {
	mock.calls.saveResults = true
	if mock.config.saveResults.fail {
		return 0, errors.New("failed to upload results")
	}
	return dict.WordCount(), nil
}
