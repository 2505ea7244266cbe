package serializer

import (
	"reflect"

	"github.com/griffinplus/go-serialization/dispatch"
	"github.com/griffinplus/go-serialization/wire"
)

// tagKind pairs the reflect.Kind a tag decodes to with whether the tag is
// the compact (LEB128) form of that kind.
type tagKind struct {
	kind    reflect.Kind
	compact bool
}

// primitiveTagKind and arrayTagKind are the read side's reverse lookup of
// dispatch.Codecs/dispatch.ArrayTagsByKind: the write side picks a tag from
// a kind, the read side must go the other way from whichever tag it
// actually reads off the wire.
var primitiveTagKind = buildPrimitiveTagKind()
var arrayTagKind = buildArrayTagKind()

func buildPrimitiveTagKind() map[wire.Tag]tagKind {
	m := make(map[wire.Tag]tagKind, len(dispatch.Codecs)*2)
	for kind, codec := range dispatch.Codecs {
		m[codec.NativeTag] = tagKind{kind: kind}
		if codec.HasCompact() {
			m[codec.CompactTag] = tagKind{kind: kind, compact: true}
		}
	}

	return m
}

func buildArrayTagKind() map[wire.Tag]tagKind {
	m := make(map[wire.Tag]tagKind, len(dispatch.ArrayTagsByKind)*2)
	for kind, tags := range dispatch.ArrayTagsByKind {
		m[tags.NativeTag] = tagKind{kind: kind}
		if tags.CompactTag != 0 {
			m[tags.CompactTag] = tagKind{kind: kind, compact: true}
		}
	}

	return m
}
