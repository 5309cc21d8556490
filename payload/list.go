package payload

import (
	"strings"

	"github.com/beevik/etree"
)

const itemTag = "item"

// List is a payload holding an ordered list of text items.
type List struct {
	Items []string
}

// NewList returns a List payload holding the given items.
func NewList(items ...string) *List {
	return &List{Items: append([]string{}, items...)}
}

func (l *List) Clone() *List {
	if l == nil {
		return nil
	}
	return &List{Items: append(make([]string, 0, len(l.Items)), l.Items...)}
}

// String returns the items joined by commas.
func (l *List) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(l.Items, ", ")
}

// EncodeXML returns a payload element with one item element per item.
func (l *List) EncodeXML() (string, error) {
	el := etree.NewElement(Tag)
	if l != nil {
		for _, item := range l.Items {
			el.CreateElement(itemTag).SetText(item)
		}
	}
	return writeElement(el)
}

// DecodeList returns the List payload encoded in the given fragment.
func DecodeList(fragment string) (*List, error) {
	el, err := findElement(fragment)
	if err != nil {
		return nil, err
	}
	list := &List{Items: []string{}}
	for _, item := range el.SelectElements(itemTag) {
		list.Items = append(list.Items, item.Text())
	}
	return list, nil
}
