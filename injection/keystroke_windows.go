//go:build windows

package injection

import (
	"context"
	"unicode/utf16"
	"unsafe"

	"github.com/lxn/win"

	apperrors "github.com/skillsenselab/voicekit/errors"
)

// keystrokeInjector types text into the focused control with synthetic
// key events. Each UTF-16 unit goes out as a KEYEVENTF_UNICODE down/up
// pair, which delivers the character itself rather than a layout-mapped
// virtual key. Newline and tab go through their virtual keys because
// many controls ignore the raw control characters.
type keystrokeInjector struct{}

func newKeystrokeInjector() *keystrokeInjector { return &keystrokeInjector{} }

func (k *keystrokeInjector) Strategy() Strategy { return StrategyKeystroke }

func (k *keystrokeInjector) Inject(ctx context.Context, req Request) error {
	units := utf16.Encode([]rune(req.Text))
	for i, unit := range units {
		if i > 0 {
			if err := wait(ctx, req.KeyDelay); err != nil {
				return err
			}
		}
		if err := typeUnit(unit); err != nil {
			return err
		}
	}
	return nil
}

func typeUnit(unit uint16) error {
	var events [2]win.KEYBD_INPUT
	switch unit {
	case '\n':
		events = virtualKeyPair(win.VK_RETURN)
	case '\t':
		events = virtualKeyPair(win.VK_TAB)
	default:
		events = unicodePair(unit)
	}
	if !sendKeyEvents(events[:]) {
		if unit > 127 {
			return apperrors.UnsupportedText(string(StrategyKeystroke), "the target rejected a synthetic Unicode key event")
		}
		return apperrors.InjectionFailed(string(StrategyKeystroke), "the system input queue rejected a key event")
	}
	return nil
}

func unicodePair(unit uint16) [2]win.KEYBD_INPUT {
	return [2]win.KEYBD_INPUT{
		{
			Type: win.INPUT_KEYBOARD,
			Ki:   win.KEYBDINPUT{WScan: unit, DwFlags: win.KEYEVENTF_UNICODE},
		},
		{
			Type: win.INPUT_KEYBOARD,
			Ki:   win.KEYBDINPUT{WScan: unit, DwFlags: win.KEYEVENTF_UNICODE | win.KEYEVENTF_KEYUP},
		},
	}
}

func virtualKeyPair(vk uint16) [2]win.KEYBD_INPUT {
	return [2]win.KEYBD_INPUT{
		{
			Type: win.INPUT_KEYBOARD,
			Ki:   win.KEYBDINPUT{WVk: vk},
		},
		{
			Type: win.INPUT_KEYBOARD,
			Ki:   win.KEYBDINPUT{WVk: vk, DwFlags: win.KEYEVENTF_KEYUP},
		},
	}
}

func sendKeyEvents(events []win.KEYBD_INPUT) bool {
	sent := win.SendInput(uint32(len(events)), unsafe.Pointer(&events[0]), int32(unsafe.Sizeof(events[0])))
	return sent == uint32(len(events))
}
