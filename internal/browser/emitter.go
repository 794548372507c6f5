// internal/browser/emitter.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/taptap-cli/internal/automation"
)

// Ensure KeyEmitter satisfies the tap side-effect contract.
var _ automation.TapEmitter = (*KeyEmitter)(nil)

// KeyEmitter delivers taps to the page as synthesized key events.
type KeyEmitter struct {
	session *Session
	key     string
	logger  *zap.Logger
}

// NewKeyEmitter builds an emitter that presses key on every tap.
func NewKeyEmitter(session *Session, key string, logger *zap.Logger) *KeyEmitter {
	return &KeyEmitter{
		session: session,
		key:     key,
		logger:  logger.Named("emitter"),
	}
}

// EmitTap dispatches one key press to the tab.
func (e *KeyEmitter) EmitTap(ctx context.Context) error {
	if err := e.session.Run(ctx, chromedp.KeyEvent(e.key)); err != nil {
		return fmt.Errorf("failed to dispatch tap key: %w", err)
	}
	e.logger.Debug("Tap key dispatched.")
	return nil
}
