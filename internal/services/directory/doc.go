// Package directory looks up and caches the public keys peers publish to
// the relay directory.
package directory
