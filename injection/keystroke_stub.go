//go:build !windows

package injection

import (
	"context"

	apperrors "github.com/skillsenselab/voicekit/errors"
)

// keystrokeInjector needs win32 synthetic input. On other platforms it
// reports unsupported text so the dispatcher can reroute to the
// clipboard.
type keystrokeInjector struct{}

func newKeystrokeInjector() *keystrokeInjector { return &keystrokeInjector{} }

func (k *keystrokeInjector) Strategy() Strategy { return StrategyKeystroke }

func (k *keystrokeInjector) Inject(ctx context.Context, req Request) error {
	return apperrors.UnsupportedText(string(StrategyKeystroke), "synthetic key events are not available on this platform")
}
