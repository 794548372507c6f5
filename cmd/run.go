package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/taptap-cli/internal/automation"
	"github.com/xkilldash9x/taptap-cli/internal/browser"
	"github.com/xkilldash9x/taptap-cli/internal/bus"
	"github.com/xkilldash9x/taptap-cli/internal/observability"
	"github.com/xkilldash9x/taptap-cli/internal/store"
)

const shutdownGracePeriod = 10 * time.Second

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [url]",
		Short: "Opens the target page and starts tap automation",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so they override config file and environment values
			// with the right precedence.
			if err := viper.BindPFlag("automation.interval_ms", cmd.Flags().Lookup("interval-ms")); err != nil {
				return err
			}
			if err := viper.BindPFlag("automation.reactivation_delay_seconds", cmd.Flags().Lookup("reactivation-delay")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return viper.BindPFlag("browser.target_url", cmd.Flags().Lookup("url"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			targetURL := cfg.Browser.TargetURL
			if len(args) > 0 {
				targetURL = args[0]
			}
			if targetURL == "" {
				return fmt.Errorf("no target URL: pass it as an argument or set browser.target_url")
			}

			// Interrupts drive a graceful shutdown.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runAutomation(ctx, targetURL, logger)
		},
	}

	runCmd.Flags().String("url", "", "target page URL (overrides browser.target_url)")
	runCmd.Flags().Int("interval-ms", 0, "tap interval in milliseconds; 0 selects human mode")
	runCmd.Flags().Int("reactivation-delay", 10, "seconds before auto-resume after chat goes idle (10-60)")
	runCmd.Flags().Bool("headless", false, "run the browser headless")
	return runCmd
}

// runAutomation wires the browser, persistence, event bus and the
// coordination core together and blocks until ctx is cancelled.
func runAutomation(ctx context.Context, targetURL string, logger *zap.Logger) error {
	logger.Info("Starting tap automation",
		zap.String("url", targetURL),
		zap.Duration("interval", cfg.Automation.Interval()),
		zap.Duration("reactivation_delay", cfg.Automation.ReactivationDelay()),
	)

	// 1. Persistence for the lifetime tap total.
	tapStore, err := store.Open(cfg.State.File, logger)
	if err != nil {
		return fmt.Errorf("failed to open tap store: %w", err)
	}

	// 2. Browser session.
	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	// 3. Event bus with a logging subscriber.
	eventBus := bus.New(logger)
	defer eventBus.Close()

	// 4. Page-facing adapters.
	overlay := browser.NewOverlay(session, logger)
	chatBox := browser.NewChatBox(session, cfg.Browser.ChatInputSelector, cfg.Browser.ChatBoxSelector, logger)
	emitter := browser.NewKeyEmitter(session, cfg.Browser.TapKey, logger)

	// 5. Coordination core.
	coordinator := automation.New(
		automation.Options{
			Interval:          cfg.Automation.Interval(),
			ReactivationDelay: cfg.Automation.ReactivationDelay(),
		},
		automation.Deps{
			Taps:   emitter,
			Store:  tapStore,
			Bus:    eventBus,
			UI:     overlay,
			Chat:   chatBox,
			Logger: logger,
		},
	)
	defer coordinator.Controller.CleanupAll()

	// 6. Load the page and instrument it.
	if err := session.Navigate(ctx, targetURL); err != nil {
		return err
	}
	if err := overlay.Install(ctx); err != nil {
		return err
	}
	if err := chatBox.Attach(ctx, coordinator.Detector); err != nil {
		return err
	}

	// Navigating away invalidates all injected timers and page state.
	session.WatchNavigation(func() {
		coordinator.Controller.CleanupAll()
		if cfg.Automation.StartActive {
			coordinator.Controller.ToggleManual()
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return logEvents(gctx, eventBus, logger)
	})

	if cfg.Automation.StartActive {
		coordinator.Controller.ToggleManual()
	}

	<-gctx.Done()
	logger.Info("Shutting down tap automation")

	coordinator.Controller.CleanupAll()
	eventBus.Close()

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := tapStore.Flush(flushCtx); err != nil {
		logger.Warn("Failed to flush tap total on shutdown", zap.Error(err))
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// logEvents mirrors the event stream into the log until the context ends or
// the bus closes.
func logEvents(ctx context.Context, b *bus.Bus, logger *zap.Logger) error {
	log := logger.Named("events")
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case automation.TapCountUpdated:
				log.Debug("Tap recorded", zap.Int("count", e.Count))
			default:
				log.Info("Automation state changed", zap.String("event", automation.Kind(ev)))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}
