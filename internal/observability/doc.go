// Package observability provides structured logging (zerolog) and
// Prometheus metrics shared by the client services and the relay.
package observability
