// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/taptap-cli/internal/config"
)

const actionTimeout = 10 * time.Second

// Session owns one browser process and the tab the tapper drives.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu       sync.Mutex
	isClosed bool
}

// execOptions translates the browser config into chromedp allocator options.
func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}

	for _, arg := range cfg.Args {
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}
	return opts
}

// NewSession launches a browser and opens the tab. The returned session is
// live until Close.
func NewSession(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	log := logger.Named("browser").With(zap.String("session_id", sessionID))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(cfg)...)

	ctxOpts := []chromedp.ContextOption{}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(log.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// An empty Run starts the browser process eagerly so launch failures
	// surface here instead of on the first tap.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return &Session{
		id:          sessionID,
		logger:      log,
		cfg:         cfg,
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      tabCancel,
	}, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Context exposes the tab context for listeners and CDP calls.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Run executes actions against the tab, bounded by both the caller's context
// and the tab lifetime.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return fmt.Errorf("session %s is closed", s.id)
	}
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(s.ctx, actionTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL.", zap.String("url", url))
	if err := s.Run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WatchNavigation invokes onNavigate whenever the top frame navigates away.
// Injected page state is gone after navigation, so callers use this to reset
// the automation core.
func (s *Session) WatchNavigation(onNavigate func()) {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		nav, ok := ev.(*page.EventFrameNavigated)
		if !ok || nav.Frame == nil || nav.Frame.ParentID != "" {
			return
		}
		s.logger.Info("Top frame navigated, resetting automation.", zap.String("url", nav.Frame.URL))
		onNavigate()
	})
}

// Close tears down the tab and the browser process. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return
	}
	s.isClosed = true
	s.mu.Unlock()

	s.cancel()
	s.allocCancel()
	s.logger.Info("Browser session closed.")
}
