// internal/browser/chat.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/taptap-cli/internal/automation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// chatBindingName is the function the injected script calls to reach Go.
const chatBindingName = "__taptapChatEvent"

// chatScript installs page-side listeners that forward chat interaction to
// the binding. The chat box rect is re-reported on load, resize and scroll
// so the Go side can classify clicks without a round trip.
const chatScript = `(() => {
	const send = (msg) => window.%[1]s(JSON.stringify(msg));

	const reportRect = () => {
		const box = document.querySelector(%[2]q);
		if (!box) return;
		const r = box.getBoundingClientRect();
		send({type: "rect", left: r.left, top: r.top, right: r.right, bottom: r.bottom});
	};

	const hook = () => {
		const input = document.querySelector(%[3]q);
		if (input) {
			input.addEventListener("focus", () => send({type: "focus"}));
			input.addEventListener("keydown", () => send({type: "focus"}));
			input.addEventListener("input", () => send({type: "input", text: input.value ?? input.textContent ?? ""}));
		}
		document.addEventListener("click", (e) => send({type: "click", x: e.pageX, y: e.pageY}), true);
		reportRect();
		window.addEventListener("resize", reportRect);
		window.addEventListener("scroll", reportRect, true);
	};

	if (document.readyState === "loading") {
		document.addEventListener("DOMContentLoaded", hook);
	} else {
		hook();
	}
})();`

// chatEvent is the payload shape the injected script sends.
type chatEvent struct {
	Type string  `json:"type"`
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`

	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Ensure ChatBox provides the containment predicate the detector consumes.
var _ automation.ChatLocator = (*ChatBox)(nil)

// ChatBox bridges page chat signals to the interaction detector and answers
// the chat-region containment predicate from a cached bounding rect.
type ChatBox struct {
	session       *Session
	inputSelector string
	boxSelector   string
	logger        *zap.Logger

	mu   sync.Mutex
	rect struct {
		left, top, right, bottom float64
		known                    bool
	}
}

// NewChatBox builds the bridge for the given selectors.
func NewChatBox(session *Session, inputSelector, boxSelector string, logger *zap.Logger) *ChatBox {
	return &ChatBox{
		session:       session,
		inputSelector: inputSelector,
		boxSelector:   boxSelector,
		logger:        logger.Named("chat"),
	}
}

// IsInsideChatRegion reports whether page coordinates fall within the last
// known chat box rect. Unknown rect means not inside.
func (cb *ChatBox) IsInsideChatRegion(x, y float64) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.rect.known {
		return false
	}
	return x >= cb.rect.left && x <= cb.rect.right && y >= cb.rect.top && y <= cb.rect.bottom
}

// Attach registers the page binding, injects the listener script and starts
// forwarding events to the detector. The script is installed for every new
// document so it survives navigation.
func (cb *ChatBox) Attach(ctx context.Context, detector *automation.Detector) error {
	script := fmt.Sprintf(chatScript, chatBindingName, cb.boxSelector, cb.inputSelector)

	err := cb.session.Run(ctx,
		runtime.AddBinding(chatBindingName),
		chromedp.ActionFunc(func(c context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(c)
			return err
		}),
		// The current document already loaded, so install there too.
		chromedp.Evaluate(script, nil),
	)
	if err != nil {
		return fmt.Errorf("failed to attach chat listeners: %w", err)
	}

	chromedp.ListenTarget(cb.session.Context(), func(ev interface{}) {
		binding, ok := ev.(*runtime.EventBindingCalled)
		if !ok || binding.Name != chatBindingName {
			return
		}
		cb.dispatch(binding.Payload, detector)
	})

	cb.logger.Info("Chat interaction listeners attached.",
		zap.String("input_selector", cb.inputSelector),
		zap.String("box_selector", cb.boxSelector))
	return nil
}

func (cb *ChatBox) dispatch(payload string, detector *automation.Detector) {
	var ev chatEvent
	if err := json.UnmarshalFromString(payload, &ev); err != nil {
		cb.logger.Warn("Could not unmarshal chat event payload.",
			zap.Error(err), zap.String("payload", payload))
		return
	}

	switch ev.Type {
	case "focus":
		detector.InteractionStart()
	case "input":
		detector.ContentChanged(ev.Text)
	case "click":
		detector.Click(ev.X, ev.Y)
	case "rect":
		cb.mu.Lock()
		cb.rect.left, cb.rect.top = ev.Left, ev.Top
		cb.rect.right, cb.rect.bottom = ev.Right, ev.Bottom
		cb.rect.known = true
		cb.mu.Unlock()
	default:
		cb.logger.Debug("Ignoring unknown chat event type.", zap.String("type", ev.Type))
	}
}
