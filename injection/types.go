package injection

import "time"

// Strategy selects the mechanism that carries text into the target.
type Strategy string

const (
	// StrategyAuto lets the dispatcher pick from the target's category.
	StrategyAuto Strategy = "auto"
	// StrategyKeystroke types the text as synthetic key events.
	StrategyKeystroke Strategy = "keystroke"
	// StrategyClipboard pastes the text through the clipboard.
	StrategyClipboard Strategy = "clipboard"
	// StrategyUIAutomation writes the text into the focused control
	// directly.
	StrategyUIAutomation Strategy = "uiautomation"
)

// ApplicationCategory groups foreground applications by how they accept
// synthetic input.
type ApplicationCategory string

const (
	CategoryBrowser       ApplicationCategory = "browser"
	CategoryIDE           ApplicationCategory = "ide"
	CategoryOffice        ApplicationCategory = "office"
	CategoryTerminal      ApplicationCategory = "terminal"
	CategoryEditor        ApplicationCategory = "editor"
	CategoryCommunication ApplicationCategory = "communication"
	CategoryUnknown       ApplicationCategory = "unknown"
)

// Target describes the foreground window delivery aims at.
type Target struct {
	// Window is the native handle of the foreground window, zero when the
	// probe could not resolve one.
	Window uintptr
	// ProcessName is the base image name of the owning process.
	ProcessName string
	WindowTitle string
	Category    ApplicationCategory
}

// Options tunes a single InjectText call.
type Options struct {
	// Strategy overrides automatic selection. Empty and StrategyAuto keep
	// the category default.
	Strategy Strategy
	// ClipboardFallback switches the clipboard retry after a failed
	// primary strategy on or off. nil keeps the category default, which
	// enables it for unknown targets only.
	ClipboardFallback *bool
	// KeyDelay overrides the per-character delay for keystroke delivery.
	KeyDelay time.Duration
	// MaxAttempts overrides the configured attempt budget.
	MaxAttempts int
}

// Result reports the outcome of one InjectText call. Failures carry a
// human-readable Reason instead of an error: delivery problems are
// expected operating conditions, not exceptions.
type Result struct {
	Success bool
	// Strategy that ultimately carried the text. Empty for the no-op case.
	Strategy Strategy
	Category ApplicationCategory
	// Target is the process name delivery aimed at, when known.
	Target string
	// Fallback reports that the clipboard carried the text after the
	// primary strategy could not.
	Fallback bool
	Attempts int
	Chars    int
	Duration time.Duration
	Reason   string
}
