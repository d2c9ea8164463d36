//go:build windows

package injection

import (
	"context"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	apperrors "github.com/skillsenselab/voicekit/errors"
)

var (
	user32               = syscall.NewLazyDLL("user32.dll")
	procGetGUIThreadInfo = user32.NewProc("GetGUIThreadInfo")
)

// guiThreadInfo mirrors the win32 GUITHREADINFO structure.
type guiThreadInfo struct {
	cbSize        uint32
	flags         uint32
	hwndActive    win.HWND
	hwndFocus     win.HWND
	hwndCapture   win.HWND
	hwndMenuOwner win.HWND
	hwndMoveSize  win.HWND
	hwndCaret     win.HWND
	rcCaret       win.RECT
}

// uiAutomationInjector writes text straight into the focused edit
// control with EM_REPLACESEL, bypassing the input queue entirely. It
// only works against classic edit controls; windows without one report
// a focus failure.
type uiAutomationInjector struct{}

func newUIAutomationInjector() *uiAutomationInjector { return &uiAutomationInjector{} }

func (u *uiAutomationInjector) Strategy() Strategy { return StrategyUIAutomation }

func (u *uiAutomationInjector) Inject(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hwnd := win.HWND(req.Target.Window)
	if hwnd == 0 {
		hwnd = win.GetForegroundWindow()
	}
	if hwnd == 0 {
		return apperrors.InjectionFailed(string(StrategyUIAutomation), "no window has the foreground")
	}

	focus := focusedControl(hwnd)
	if focus == 0 {
		return apperrors.InjectionFailed(string(StrategyUIAutomation), "the target window has no focusable text control")
	}

	text, err := windows.UTF16PtrFromString(req.Text)
	if err != nil {
		return apperrors.UnsupportedText(string(StrategyUIAutomation), "text contains an interior NUL byte")
	}
	// wParam 1 makes the edit control's undo stack record the insert.
	win.SendMessage(focus, win.EM_REPLACESEL, 1, uintptr(unsafe.Pointer(text)))
	return nil
}

// focusedControl finds the control holding keyboard focus on the
// window's thread, falling back to the caret owner.
func focusedControl(hwnd win.HWND) win.HWND {
	thread := win.GetWindowThreadProcessId(hwnd, nil)
	if thread == 0 {
		return 0
	}
	var info guiThreadInfo
	info.cbSize = uint32(unsafe.Sizeof(info))
	ret, _, _ := procGetGUIThreadInfo.Call(uintptr(thread), uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0
	}
	if info.hwndFocus != 0 {
		return info.hwndFocus
	}
	return info.hwndCaret
}
