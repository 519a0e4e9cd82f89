package pipeline

import (
	"context"
	"errors"
	"strings"
)

type correctorMock struct {
	replacements map[string]string
	failOn       string
	calls        []string
	closed       bool
}

func (mock *correctorMock) Correct(ctx context.Context, line string) (string, error) {
	mock.calls = append(mock.calls, line)
	if mock.failOn != "" && line == mock.failOn {
		return "", errors.New("correction surface did not respond")
	}
	if corrected, ok := mock.replacements[line]; ok {
		return corrected, nil
	}
	return line, nil
}

func (mock *correctorMock) Close() error {
	mock.closed = true
	return nil
}

type annotatorMock struct {
	lemmas map[string]string
	failAt int
	calls  int
}

func (mock *annotatorMock) Lemma(ctx context.Context, line string) (string, error) {
	mock.calls++
	if mock.failAt > 0 && mock.calls == mock.failAt {
		return "", errors.New("malformed annotation payload")
	}
	if lemma, ok := mock.lemmas[line]; ok {
		return lemma, nil
	}
	return strings.ToLower(line), nil
}

type declinerMock struct {
	cells  map[string][]string
	failOn string
	calls  []string
	closed bool
}

func (mock *declinerMock) Decline(ctx context.Context, lemma string) ([]string, error) {
	mock.calls = append(mock.calls, lemma)
	if mock.failOn != "" && lemma == mock.failOn {
		return nil, errors.New("declension surface timed out")
	}
	return mock.cells[lemma], nil
}

func (mock *declinerMock) Close() error {
	mock.closed = true
	return nil
}

type openCounter struct {
	opened int
}

func (counter *openCounter) corrector(mock *correctorMock) OpenCorrector {
	return func(ctx context.Context) (Corrector, error) {
		counter.opened++
		return mock, nil
	}
}

func (counter *openCounter) decliner(mock *declinerMock) OpenDecliner {
	return func(ctx context.Context) (Decliner, error) {
		counter.opened++
		return mock, nil
	}
}

func failingOpenCorrector(ctx context.Context) (Corrector, error) {
	return nil, errors.New("browser is gone")
}

type blockingCorrector struct {
	started chan struct{}
	release chan struct{}
}

func (mock *blockingCorrector) Correct(ctx context.Context, line string) (string, error) {
	close(mock.started)
	<-mock.release
	return line, nil
}

func (mock *blockingCorrector) Close() error {
	return nil
}
