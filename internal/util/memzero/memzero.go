// Package memzero wipes secret material held in byte slices.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	// Keep the writes from being elided as dead stores.
	runtime.KeepAlive(b)
}

// All zeroes every slice in bs.
func All(bs ...[]byte) {
	for _, b := range bs {
		Zero(b)
	}
}
