//go:build windows

package injection

import (
	"fmt"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

type platformProber struct{}

func newPlatformProber() Prober { return &platformProber{} }

// Foreground identifies the window currently receiving input.
func (p *platformProber) Foreground() (Target, error) {
	hwnd := win.GetForegroundWindow()
	if hwnd == 0 {
		return Target{}, fmt.Errorf("no window has the foreground")
	}

	target := Target{Window: uintptr(hwnd), WindowTitle: windowTitle(hwnd)}

	var pid uint32
	win.GetWindowThreadProcessId(hwnd, &pid)
	if pid != 0 {
		if name, err := processImageName(pid); err == nil {
			target.ProcessName = name
		}
	}
	return target, nil
}

func windowTitle(hwnd win.HWND) string {
	var buf [256]uint16
	n := win.GetWindowText(hwnd, &buf[0], int32(len(buf)))
	if n <= 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// processImageName resolves a pid to its executable base name.
func processImageName(pid uint32) (string, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "", err
	}
	return baseName(windows.UTF16ToString(buf[:size])), nil
}
