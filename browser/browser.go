// Package browser keeps one headless Chrome process per run and hands out
// tabs that stages use as their long-lived sessions.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"wordforms.dev/declensions/logger"
)

type Config struct {
	Headless  bool   `envconfig:"DFL_BROWSER_HEADLESS" default:"true"`
	ExecPath  string `envconfig:"DFL_BROWSER_EXEC_PATH" default:""`
	UserAgent string `envconfig:"DFL_BROWSER_USER_AGENT" default:""`
	NoSandbox bool   `envconfig:"DFL_BROWSER_NO_SANDBOX" default:"false"`
}

func ReadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	dflLogger   zerolog.Logger
}

// New starts the browser process. It lives until Close or until ctx is done.
func New(ctx context.Context, cfg Config) (*Browser, error) {
	dflLogger := logger.NewLogger("Browser")

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		dflLogger.Err(err).Msg("Could not start browser")
		return nil, fmt.Errorf("start browser: %w", err)
	}
	dflLogger.Info().Bool("headless", cfg.Headless).Msg("Browser started")

	return &Browser{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		dflLogger:   dflLogger,
	}, nil
}

func (b *Browser) Close() error {
	b.cancel()
	b.allocCancel()
	b.dflLogger.Info().Msg("Browser closed")
	return nil
}

// Tab is one page of the browser. Every call is bounded by the tab timeout
// and by the caller's context.
type Tab struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

func (b *Browser) NewTab(ctx context.Context, timeout time.Duration) (*Tab, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	tab := &Tab{ctx: tabCtx, cancel: cancel, timeout: timeout}
	if err := tab.Run(ctx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return tab, nil
}

func (t *Tab) Close() error {
	t.cancel()
	return nil
}

func (t *Tab) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(t.ctx, t.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (t *Tab) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := t.runContext(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// RunAndWaitLoad runs actions that trigger a navigation and returns once the
// new page fired its load event.
func (t *Tab) RunAndWaitLoad(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := t.runContext(ctx)
	defer cancel()

	loaded := make(chan struct{}, 1)
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			select {
			case loaded <- struct{}{}:
			default:
			}
		}
	})
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return err
	}
	select {
	case <-loaded:
		return nil
	case <-runCtx.Done():
		return fmt.Errorf("waiting for page load: %w", runCtx.Err())
	}
}

// RunAndWaitResponse runs actions and returns the body of the first response
// whose URL satisfies match.
func (t *Tab) RunAndWaitResponse(ctx context.Context, match func(url string) bool, actions ...chromedp.Action) ([]byte, error) {
	runCtx, cancel := t.runContext(ctx)
	defer cancel()

	finished := make(chan network.RequestID, 1)
	var pending network.RequestID
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			if pending == "" && ev.Response != nil && match(ev.Response.URL) {
				pending = ev.RequestID
			}
		case *network.EventLoadingFinished:
			if pending != "" && ev.RequestID == pending {
				select {
				case finished <- ev.RequestID:
				default:
				}
			}
		}
	})
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, err
	}

	var requestID network.RequestID
	select {
	case requestID = <-finished:
	case <-runCtx.Done():
		return nil, fmt.Errorf("waiting for response: %w", runCtx.Err())
	}

	var body []byte
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(requestID).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}
