// Package component defines the lifecycle contract for the services the
// dictation layer runs: the audit dispatcher, the control server, the
// observability exporters.
//
// A Component starts, stops and reports health. The Registry holds them
// in registration order, starts them in that order, stops them in
// reverse, and aggregates health for the control server's /healthz.
// Components may additionally implement Describable and RouteProvider
// to show up in the bootstrap startup summary.
package component
