package bootstrap

import (
	"github.com/skillsenselab/voicekit/config"
)

// Config is the interface constraint for application configuration types.
// config.Settings satisfies it directly; a host shell with extra sections
// satisfies it by embedding Settings (value embedding), which promotes the
// required methods.
//
// Example:
//
//	type ShellConfig struct {
//	    config.Settings `yaml:",inline" mapstructure:",squash"`
//	    Hotkeys hotkeys.Config `yaml:"hotkeys" mapstructure:"hotkeys"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
