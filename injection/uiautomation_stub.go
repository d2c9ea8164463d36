//go:build !windows

package injection

import (
	"context"

	apperrors "github.com/skillsenselab/voicekit/errors"
)

type uiAutomationInjector struct{}

func newUIAutomationInjector() *uiAutomationInjector { return &uiAutomationInjector{} }

func (u *uiAutomationInjector) Strategy() Strategy { return StrategyUIAutomation }

func (u *uiAutomationInjector) Inject(ctx context.Context, req Request) error {
	return apperrors.InjectionFailed(string(StrategyUIAutomation), "direct control access is not available on this platform")
}
