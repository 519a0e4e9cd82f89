// Package korektor drives the LINDAT Korektor page as the correction session.
package korektor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"

	"wordforms.dev/declensions/browser"
	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/types"
)

var ErrUnexpectedPayload = errors.New("unexpected suggestions payload")

type Session struct {
	tab     *browser.Tab
	surface types.CorrectionSurface
}

// Opener opens a new tab of b for every correction stage.
func Opener(b *browser.Browser, surface types.CorrectionSurface) pipeline.OpenCorrector {
	return func(ctx context.Context) (pipeline.Corrector, error) {
		return Open(ctx, b, surface)
	}
}

func Open(ctx context.Context, b *browser.Browser, surface types.CorrectionSurface) (*Session, error) {
	tab, err := b.NewTab(ctx, surface.Timeout)
	if err != nil {
		return nil, err
	}
	err = tab.Run(ctx,
		chromedp.Navigate(surface.URL),
		chromedp.Click(surface.TaskSelector, chromedp.ByQuery),
	)
	if err != nil {
		_ = tab.Close()
		return nil, fmt.Errorf("open %s: %w", surface.URL, err)
	}
	return &Session{tab: tab, surface: surface}, nil
}

func (s *Session) Correct(ctx context.Context, line string) (string, error) {
	body, err := s.tab.RunAndWaitResponse(ctx,
		func(url string) bool { return url == s.surface.SuggestionsURL },
		chromedp.SetValue(s.surface.InputSelector, line, chromedp.ByQuery),
		chromedp.Click(s.surface.SubmitSelector, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return ParseSuggestion(body)
}

func (s *Session) Close() error {
	return s.tab.Close()
}

type suggestionsResponse struct {
	Result [][]string `json:"result"`
}

// ParseSuggestion reads the first entry of the first result row.
func ParseSuggestion(body []byte) (string, error) {
	var response suggestionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}
	if len(response.Result) == 0 || len(response.Result[0]) == 0 {
		return "", fmt.Errorf("%w: no result", ErrUnexpectedPayload)
	}
	return response.Result[0][0], nil
}
