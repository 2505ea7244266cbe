// Package typeid derives a stable 64-bit hash from a type descriptor's
// canonical key, used by the registry as the key of its name index: each
// lookup hashes the descriptor key and then probes by the 64-bit ID rather
// than by the full dotted type name.
package typeid

import "github.com/griffinplus/go-serialization/internal/hash"

// ID is the 64-bit hash of a type descriptor's canonical key.
type ID uint64

// Of hashes a canonical descriptor key (typedesc.Descriptor.Key()) into
// an ID. Two descriptors with the same key always produce the same ID;
// a collision between two different keys is possible but astronomically
// unlikely, so callers that need certainty should keep the original key
// alongside the ID rather than trust it alone for identity.
func Of(key string) ID {
	return ID(hash.ID(key))
}
