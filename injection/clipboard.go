package injection

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"

	apperrors "github.com/skillsenselab/voicekit/errors"
)

// clipboardInjector delivers text by replacing the clipboard contents,
// sending a Ctrl+V chord, and restoring what was there before.
type clipboardInjector struct {
	pasteDelay   time.Duration
	restoreDelay time.Duration
}

func newClipboardInjector(pasteDelay, restoreDelay time.Duration) *clipboardInjector {
	return &clipboardInjector{pasteDelay: pasteDelay, restoreDelay: restoreDelay}
}

func (c *clipboardInjector) Strategy() Strategy { return StrategyClipboard }

func (c *clipboardInjector) Inject(ctx context.Context, req Request) error {
	backup, backupErr := clipboard.ReadAll()
	restorable := backupErr == nil

	if err := clipboard.WriteAll(req.Text); err != nil {
		return apperrors.InjectionFailed(string(StrategyClipboard), "clipboard access denied: "+err.Error())
	}

	// Give slower targets time to observe the new contents before pasting.
	if err := wait(ctx, c.pasteDelay); err != nil {
		c.restore(restorable, backup)
		return err
	}

	if err := pasteChord(); err != nil {
		c.restore(restorable, backup)
		return apperrors.InjectionFailed(string(StrategyClipboard), "paste keystroke rejected: "+err.Error())
	}

	// The paste has landed at this point; a late cancellation only
	// shortens the pause before the old contents come back.
	_ = wait(ctx, c.restoreDelay)
	c.restore(restorable, backup)
	return nil
}

func (c *clipboardInjector) restore(restorable bool, backup string) {
	if !restorable {
		return
	}
	_ = clipboard.WriteAll(backup)
}

func pasteChord() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	return kb.Launching()
}
