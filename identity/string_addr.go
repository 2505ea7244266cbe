package identity

import "unsafe"

// stringDataAddr returns the address of s's backing byte array, used as the
// identity key for string deduplication. Two string values sharing the same
// data address (e.g. the same variable emitted twice) are treated as one
// reference; two different strings with
// equal content but distinct backing arrays are treated as distinct
// references, matching the reference-equality semantics spec §4.6 requires.
func stringDataAddr(s string) uintptr {
	return uintptr(unsafe.Pointer(unsafe.StringData(s)))
}
