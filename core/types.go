package core

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	// TagRoot is the name of the root element of an encoded store.
	TagRoot = "noSqlDb"
	// TagKeyType is the name of the element describing the key type.
	TagKeyType = "keyType"
	// TagPayloadType is the name of the element describing the payload type.
	TagPayloadType = "payloadType"
	// TagKey is the name of a key element, both at the root and inside a key list.
	TagKey = "key"
	// TagElement is the name of the element holding an encoded record.
	TagElement = "element"
	// TagName is the name of the record name element.
	TagName = "name"
	// TagDescription is the name of the record description element.
	TagDescription = "descr"
	// TagTimestamp is the name of the record timestamp element.
	TagTimestamp = "timeStamp"
	// TagKeys is the name of the record child key list element.
	TagKeys = "keys"
)

// TimeLayout is the layout used to encode and decode record timestamps.
const TimeLayout = time.RFC3339Nano

// Payload is the capability set every record payload must satisfy.
//
// The core never inspects payload internals. Implementations own the shape
// of the fragment returned by EncodeXML and must accept it back through the
// matching PayloadDecoder.
type Payload[P any] interface {
	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() P
	// String returns the human readable rendering of the payload.
	String() string
	// EncodeXML returns the XML fragment embedded in an encoded record.
	EncodeXML() (string, error)
}

// PayloadDecoder builds a payload from a fragment produced by Payload.EncodeXML.
type PayloadDecoder[P any] func(fragment string) (P, error)

// Value is the capability set required of values held by a Store.
type Value[V any] interface {
	Clone() V
	Element() (*etree.Element, error)
}

// Queryable is the read surface shared by stores, query engines, and views.
type Queryable[K comparable, V any] interface {
	Lookup(key K) (V, bool)
	Values() []V
	ValuesOf(keys ...K) ([]V, error)
	Keys() []K
	ContainsKey(key K) bool
}

// FormatKey returns the text form of a key.
func FormatKey[K comparable](key K) string {
	return fmt.Sprint(key)
}

// CompareKeys orders two keys. Integer and string keys compare by value,
// other keys by their text form.
func CompareKeys[K comparable](a, b K) int {
	switch x := any(a).(type) {
	case int:
		return cmp.Compare(x, any(b).(int))
	case int64:
		return cmp.Compare(x, any(b).(int64))
	case string:
		return cmp.Compare(x, any(b).(string))
	}
	return strings.Compare(FormatKey(a), FormatKey(b))
}

// indentSettings returns the layout of encoded XML. Whitespace only text is
// payload content and must survive the indentation.
func indentSettings() *etree.IndentSettings {
	settings := etree.NewIndentSettings()
	settings.Spaces = 2
	settings.PreserveLeafWhitespace = true
	return settings
}

// typeName returns the unqualified name of the type of v.
func typeName(v any) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", v), "*")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
