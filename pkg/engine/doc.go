// Package engine runs the mock API server.
//
// Layout of the listener:
//
//	<prefix>/*                            dispatcher (prefix stripped)
//	GET  /__mockapi/health                liveness probe
//	GET  /__mockapi/metrics               Prometheus text exposition
//	POST /__mockapi/resources/{name}/generate?count=N
//	                                      replace a collection with generated records
//
// The engine owns the store, the webhook notifier and the metrics set, and
// wires dependent-API calls back into its own dispatcher unless a base URL
// is configured.
package engine
