// Package injection delivers transcribed text into the foreground
// application.
//
// The Dispatcher classifies the foreground window into an application
// category, picks a delivery strategy from a lookup table (office suites
// and editors paste, terminals and IDEs type with a tuned per-character
// delay) and retries with an optional clipboard fallback. Every call
// returns a Result; delivery problems are reported as human-readable
// reasons, never as panics across the boundary.
//
// Strategy implementations live behind the Injector interface. The
// keystroke and UI-automation injectors need the win32 input APIs and
// compile to unsupported stubs elsewhere; the clipboard injector works on
// every desktop platform.
package injection
