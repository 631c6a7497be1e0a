// Package replay tracks message nonces so a captured message cannot be
// delivered twice in the same session.
package replay
