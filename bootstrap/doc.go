// Package bootstrap assembles and runs a voicekit host process.
//
// It provides two layers. App is the generic lifecycle shell: it validates
// configuration, initializes logging, starts registered components in order,
// runs startup hooks, and shuts everything down on an OS signal. Host builds
// on App and wires the full dictation graph from config.Settings: credential
// stores, the metrics exporter, the audit dispatcher, rate limiter and
// recovery engine, transcription providers, the injection dispatcher, the
// session orchestrator, and the local control server.
//
// # Quick Start
//
//	cfg := config.DefaultSettings()
//	host, err := bootstrap.NewHost(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	host.OnStop(func(ctx context.Context) error {
//	    // flush in-flight session state
//	    return nil
//	})
//	if err := host.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// A tray shell that owns hotkeys and audio capture calls
// host.Orchestrator.Dictate per push-to-talk session; everything below that
// call is already connected.
package bootstrap
