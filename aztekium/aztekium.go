// Package aztekium drives the aztekium declension page as the generation
// session.
package aztekium

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"wordforms.dev/declensions/browser"
	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/types"
)

type Session struct {
	tab     *browser.Tab
	surface types.DeclensionSurface
	script  string
}

func Opener(b *browser.Browser, surface types.DeclensionSurface) pipeline.OpenDecliner {
	return func(ctx context.Context) (pipeline.Decliner, error) {
		return Open(ctx, b, surface)
	}
}

func Open(ctx context.Context, b *browser.Browser, surface types.DeclensionSurface) (*Session, error) {
	script, err := cellsScript(surface.ResultSelector)
	if err != nil {
		return nil, err
	}
	tab, err := b.NewTab(ctx, surface.Timeout)
	if err != nil {
		return nil, err
	}
	if err = tab.Run(ctx, chromedp.Navigate(surface.URL)); err != nil {
		_ = tab.Close()
		return nil, fmt.Errorf("open %s: %w", surface.URL, err)
	}
	if surface.LanguageSelector != "" {
		err = tab.RunAndWaitLoad(ctx, chromedp.Click(surface.LanguageSelector, chromedp.ByQuery))
		if err != nil {
			_ = tab.Close()
			return nil, fmt.Errorf("select language: %w", err)
		}
	}
	return &Session{tab: tab, surface: surface, script: script}, nil
}

func (s *Session) Decline(ctx context.Context, lemma string) ([]string, error) {
	err := s.tab.RunAndWaitLoad(ctx,
		chromedp.SetValue(s.surface.InputSelector, "", chromedp.ByQuery),
		chromedp.SendKeys(s.surface.InputSelector, lemma+kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	var cells []string
	if err = s.tab.Run(ctx, chromedp.Evaluate(s.script, &cells)); err != nil {
		return nil, fmt.Errorf("read result cells: %w", err)
	}
	return cells, nil
}

func (s *Session) Close() error {
	return s.tab.Close()
}

// cellsScript builds the expression returning the trimmed text of every cell
// matching selector.
func cellsScript(selector string) (string, error) {
	if selector == "" {
		return "", fmt.Errorf("result selector is empty")
	}
	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"Array.from(document.querySelectorAll(%s)).map(el => el.textContent.trim())",
		quoted,
	), nil
}
