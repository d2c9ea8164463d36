package injection

import "strings"

// processCategories maps well-known process image names to categories.
// Anything unlisted classifies as unknown, which gets keystroke delivery
// with the clipboard retry enabled.
var processCategories = map[string]ApplicationCategory{
	// browsers
	"chrome.exe":  CategoryBrowser,
	"msedge.exe":  CategoryBrowser,
	"firefox.exe": CategoryBrowser,
	"brave.exe":   CategoryBrowser,
	"opera.exe":   CategoryBrowser,
	"vivaldi.exe": CategoryBrowser,

	// IDEs
	"devenv.exe":    CategoryIDE,
	"code.exe":      CategoryIDE,
	"idea64.exe":    CategoryIDE,
	"goland64.exe":  CategoryIDE,
	"pycharm64.exe": CategoryIDE,
	"rider64.exe":   CategoryIDE,
	"clion64.exe":   CategoryIDE,
	"studio64.exe":  CategoryIDE,

	// office suites
	"winword.exe":  CategoryOffice,
	"excel.exe":    CategoryOffice,
	"powerpnt.exe": CategoryOffice,
	"outlook.exe":  CategoryOffice,
	"onenote.exe":  CategoryOffice,
	"soffice.bin":  CategoryOffice,

	// terminals
	"windowsterminal.exe": CategoryTerminal,
	"wt.exe":              CategoryTerminal,
	"cmd.exe":             CategoryTerminal,
	"powershell.exe":      CategoryTerminal,
	"pwsh.exe":            CategoryTerminal,
	"conhost.exe":         CategoryTerminal,
	"alacritty.exe":       CategoryTerminal,
	"wezterm-gui.exe":     CategoryTerminal,
	"mintty.exe":          CategoryTerminal,

	// editors
	"notepad.exe":      CategoryEditor,
	"notepad++.exe":    CategoryEditor,
	"sublime_text.exe": CategoryEditor,
	"obsidian.exe":     CategoryEditor,

	// communication
	"slack.exe":    CategoryCommunication,
	"teams.exe":    CategoryCommunication,
	"ms-teams.exe": CategoryCommunication,
	"discord.exe":  CategoryCommunication,
	"telegram.exe": CategoryCommunication,
	"signal.exe":   CategoryCommunication,
	"zoom.exe":     CategoryCommunication,
}

// Classify maps a process image name to its application category.
// Matching is case-insensitive on the base name, so full paths work too.
func Classify(processName string) ApplicationCategory {
	if processName == "" {
		return CategoryUnknown
	}
	if cat, ok := processCategories[strings.ToLower(baseName(processName))]; ok {
		return cat
	}
	return CategoryUnknown
}

// baseName strips directories from a process path. Both separators are
// handled so classification behaves the same on every build platform.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `\/`); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// defaultStrategies is the category-to-strategy table. Office suites,
// editors and chat clients buffer or reinterpret rapid synthetic
// keystrokes, so they take the paste path; terminals and IDEs take
// keystrokes with a per-category delay.
var defaultStrategies = map[ApplicationCategory]Strategy{
	CategoryBrowser:       StrategyKeystroke,
	CategoryIDE:           StrategyKeystroke,
	CategoryOffice:        StrategyClipboard,
	CategoryTerminal:      StrategyKeystroke,
	CategoryEditor:        StrategyClipboard,
	CategoryCommunication: StrategyClipboard,
	CategoryUnknown:       StrategyKeystroke,
}

// DefaultStrategy returns the delivery strategy for a category.
func DefaultStrategy(cat ApplicationCategory) Strategy {
	if s, ok := defaultStrategies[cat]; ok {
		return s
	}
	return StrategyKeystroke
}

// fallbackDefault reports whether the clipboard retry is on when the
// caller does not choose. Only unknown targets get it: their keystroke
// default is a guess, and the paste path is the likeliest to land.
func fallbackDefault(cat ApplicationCategory) bool {
	return cat == CategoryUnknown
}
