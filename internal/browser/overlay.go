// internal/browser/overlay.go
package browser

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/taptap-cli/internal/automation"
)

// overlayTimeout bounds each fire-and-forget UI update.
const overlayTimeout = 3 * time.Second

// overlayScript bootstraps the in-page widget: a tap counter, a toggle
// button mirror and a notification stack. It is idempotent so it can run on
// every new document.
const overlayScript = `(() => {
	if (window.__taptap) return;
	const root = document.createElement("div");
	root.id = "__taptap-overlay";
	root.style.cssText = "position:fixed;top:8px;right:8px;z-index:2147483647;" +
		"font:12px/1.4 monospace;color:#fff;pointer-events:none;text-align:right;";
	const counter = document.createElement("div");
	counter.style.cssText = "background:#222a;padding:4px 8px;border-radius:4px;margin-bottom:4px;";
	counter.textContent = "taps: 0";
	const button = document.createElement("div");
	button.style.cssText = counter.style.cssText;
	button.textContent = "off";
	const notes = document.createElement("div");
	root.append(counter, button, notes);

	const attach = () => document.body && document.body.appendChild(root);
	if (document.body) attach();
	else document.addEventListener("DOMContentLoaded", attach);

	window.__taptap = {
		setCounter: (n) => { counter.textContent = "taps: " + n; },
		setButton: (active) => {
			button.textContent = active ? "on" : "off";
			button.style.background = active ? "#2a6a" : "#222a";
		},
		showNote: (id, text, kind, ttl) => {
			const el = document.createElement("div");
			el.dataset.noteId = String(id);
			el.dataset.kind = kind;
			el.style.cssText = "background:#444a;padding:4px 8px;border-radius:4px;margin-top:4px;";
			el.textContent = text;
			notes.appendChild(el);
			if (ttl > 0) setTimeout(() => el.remove(), ttl);
		},
		updateNote: (id, text) => {
			const el = notes.querySelector('[data-note-id="' + id + '"]');
			if (el) el.textContent = text;
		},
		removeNote: (id) => {
			const el = notes.querySelector('[data-note-id="' + id + '"]');
			if (el) el.remove();
		},
	};
})();`

// Ensure Overlay satisfies the presentation surface the core drives.
var _ automation.UISink = (*Overlay)(nil)

// Overlay renders automation state into the page. Every method returns
// immediately; the JS evaluation happens on a background goroutine because
// the state machine calls these while holding its lock.
type Overlay struct {
	session *Session
	logger  *zap.Logger
	nextRef atomic.Int64
}

// NewOverlay builds the overlay driver.
func NewOverlay(session *Session, logger *zap.Logger) *Overlay {
	return &Overlay{
		session: session,
		logger:  logger.Named("overlay"),
	}
}

// Install injects the widget into the current document and every future one.
func (o *Overlay) Install(ctx context.Context) error {
	err := o.session.Run(ctx,
		chromedp.ActionFunc(func(c context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(overlayScript).Do(c)
			return err
		}),
		chromedp.Evaluate(overlayScript, nil),
	)
	if err != nil {
		return fmt.Errorf("failed to install overlay: %w", err)
	}
	return nil
}

// eval runs a widget call without blocking the caller. Failures are logged
// and dropped; the page may be mid-navigation.
func (o *Overlay) eval(expr string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), overlayTimeout)
		defer cancel()
		if err := o.session.Run(ctx, chromedp.Evaluate(expr, nil)); err != nil {
			o.logger.Debug("Overlay update dropped.", zap.Error(err))
		}
	}()
}

func (o *Overlay) RefreshCounter(count int) {
	o.eval(fmt.Sprintf("window.__taptap && __taptap.setCounter(%d)", count))
}

func (o *Overlay) SetButtonState(active bool) {
	o.eval(fmt.Sprintf("window.__taptap && __taptap.setButton(%t)", active))
}

func (o *Overlay) ShowNotification(text string, kind automation.NotificationKind, ttl time.Duration) automation.NotificationRef {
	ref := automation.NotificationRef(o.nextRef.Add(1))
	o.eval(fmt.Sprintf("window.__taptap && __taptap.showNote(%d, %q, %q, %d)",
		ref, text, string(kind), ttl.Milliseconds()))
	return ref
}

func (o *Overlay) UpdateNotification(ref automation.NotificationRef, text string) {
	if ref == 0 {
		return
	}
	o.eval(fmt.Sprintf("window.__taptap && __taptap.updateNote(%d, %q)", ref, text))
}

func (o *Overlay) RemoveNotification(ref automation.NotificationRef) {
	if ref == 0 {
		return
	}
	o.eval(fmt.Sprintf("window.__taptap && __taptap.removeNote(%d)", ref))
}
