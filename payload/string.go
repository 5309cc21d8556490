package payload

import "github.com/beevik/etree"

// String is a payload holding a single text value.
type String struct {
	Value string
}

// NewString returns a String payload holding the given value.
func NewString(value string) *String {
	return &String{Value: value}
}

func (s *String) Clone() *String {
	if s == nil {
		return nil
	}
	return &String{Value: s.Value}
}

func (s *String) String() string {
	if s == nil {
		return ""
	}
	return s.Value
}

// EncodeXML returns the value wrapped in a payload element.
func (s *String) EncodeXML() (string, error) {
	el := etree.NewElement(Tag)
	el.SetText(s.String())
	return writeElement(el)
}

// DecodeString returns the String payload encoded in the given fragment.
func DecodeString(fragment string) (*String, error) {
	el, err := findElement(fragment)
	if err != nil {
		return nil, err
	}
	return &String{Value: el.Text()}, nil
}
