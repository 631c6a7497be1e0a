// Package relay implements the untrusted relay: a public-key directory and
// per-user message queues that only ever hold ciphertext and routing
// metadata.
//
// It contains:
//   - HTTP, a domain.RelayClient speaking JSON over HTTP
//   - Server, the HTTP routes served by the relay daemon
//   - Memory and Bolt, the in-process and bolt-file storage backends
//
// Routes:
//
//	PUT  /users/{id}            store PublicKeyRecord (id must match body)
//	GET  /users/{id}            fetch PublicKeyRecord (404 if absent)
//	POST /msg/{recipient}       enqueue EncryptedMessage
//	GET  /msg/{user}?limit=N    list queued messages, oldest first
//	POST /msg/{user}/ack        {"count": N} drop the first N
//	GET  /metrics               Prometheus exposition
//	GET  /healthz               liveness
//
// All client requests accept a context for cancellation and deadlines.
// Non-2xx statuses are returned as errors carrying the method, path and
// status text.
package relay
