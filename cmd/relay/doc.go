// Command relay runs the untrusted firechat relay: a public-key directory
// and per-user message queues served over HTTP.
//
// Usage:
//
//	relay [--listen :8080] [--data ~/.firechat-relay.db] [--log-level info]
//
// The relay never sees plaintext or private keys. It stores what clients
// post, serves it back to the addressed user and exposes Prometheus
// metrics on /metrics.
package main
