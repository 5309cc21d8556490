package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	// DefaultName is the name given to records created without one.
	DefaultName = "unnamed"
	// DefaultDescription is the description given to records created without one.
	DefaultDescription = "undescribed"
)

// Record is the value type stored in a database: metadata, the keys of
// related records, and a payload.
//
// Records are mutable and are shared by reference with every holder,
// including stores and unfrozen views. Use Clone to obtain an independent copy.
type Record[K comparable, P Payload[P]] struct {
	Name        string
	Description string
	Timestamp   time.Time
	// Children holds the keys of related records. Keys may repeat and need
	// not exist in any store.
	Children []K
	Payload  P
}

// NewRecord returns a record with default metadata and no children.
func NewRecord[K comparable, P Payload[P]]() *Record[K, P] {
	return NewNamedRecord[K, P](DefaultName, DefaultDescription)
}

// NewNamedRecord returns a record with the given name and description.
func NewNamedRecord[K comparable, P Payload[P]](name, description string) *Record[K, P] {
	return &Record[K, P]{
		Name:        name,
		Description: description,
		Timestamp:   time.Now(),
		Children:    []K{},
	}
}

// DescribeMetadata returns the text rendering of the record metadata.
func (r *Record[K, P]) DescribeMetadata() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", r.Name)
	fmt.Fprintf(&b, "desc: %s\n", r.Description)
	fmt.Fprintf(&b, "time: %s", r.Timestamp.Format(TimeLayout))
	if len(r.Children) > 0 {
		keys := make([]string, len(r.Children))
		for i, k := range r.Children {
			keys[i] = FormatKey(k)
		}
		fmt.Fprintf(&b, "\nchildren: %s", strings.Join(keys, ", "))
	}
	return b.String()
}

// String returns the metadata rendering followed by the payload rendering.
func (r *Record[K, P]) String() string {
	out := r.DescribeMetadata()
	if text := r.Payload.String(); text != "" {
		out += "\n" + text
	}
	return out
}

// Clone returns a deep copy of the record. The copy owns its children and
// its payload, so mutating either record never affects the other.
func (r *Record[K, P]) Clone() *Record[K, P] {
	return &Record[K, P]{
		Name:        r.Name,
		Description: r.Description,
		Timestamp:   r.Timestamp,
		Children:    append(make([]K, 0, len(r.Children)), r.Children...),
		Payload:     r.Payload.Clone(),
	}
}

// Element returns the XML tree of the record. The child key list is only
// present when the record has children, and the payload fragment is embedded
// as produced by the payload.
func (r *Record[K, P]) Element() (*etree.Element, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInconsistent)
	}
	el := etree.NewElement(TagElement)
	el.CreateElement(TagName).SetText(r.Name)
	el.CreateElement(TagDescription).SetText(r.Description)
	el.CreateElement(TagTimestamp).SetText(r.Timestamp.Format(TimeLayout))
	if len(r.Children) > 0 {
		keys := el.CreateElement(TagKeys)
		for _, k := range r.Children {
			keys.CreateElement(TagKey).SetText(FormatKey(k))
		}
	}
	fragment, err := r.Payload.EncodeXML()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(fragment); err != nil {
		return nil, fmt.Errorf("parse payload fragment: %w", err)
	}
	for _, child := range doc.ChildElements() {
		el.AddChild(child)
	}
	return el, nil
}

// EncodeXML returns the XML text of the record.
func (r *Record[K, P]) EncodeXML() (string, error) {
	el, err := r.Element()
	if err != nil {
		return "", err
	}
	doc := etree.NewDocument()
	doc.SetRoot(el)
	doc.IndentWithSettings(indentSettings())
	return doc.WriteToString()
}

// DecodeXML always fails with ErrDecodeUnsupported. Decoding a record needs
// the enclosing key and the key and payload codecs, which only codec.Decoder has.
func (r *Record[K, P]) DecodeXML(string) error {
	return ErrDecodeUnsupported
}
