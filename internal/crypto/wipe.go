package crypto

import (
	"crypto/subtle"
	"runtime"
)

// Wipe zeroes sensitive buffers. Best-effort only: the runtime may already
// hold copies elsewhere.
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
		runtime.KeepAlive(b)
	}
}
