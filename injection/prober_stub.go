//go:build !windows

package injection

type platformProber struct{}

func newPlatformProber() Prober { return &platformProber{} }

// Foreground reports an empty target on platforms without a foreground
// window API; classification resolves it to the unknown category.
func (p *platformProber) Foreground() (Target, error) {
	return Target{}, nil
}
