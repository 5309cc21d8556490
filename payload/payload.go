// Package payload implements the payload kinds stored in database records.
package payload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Tag is the name of the element wrapping every encoded payload.
const Tag = "payload"

// ErrMissing is returned when a fragment has no payload element.
var ErrMissing = errors.New("payload element not found")

// writeElement returns the XML text of the given element.
func writeElement(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el)
	return doc.WriteToString()
}

// findElement returns the first payload element in the given fragment.
func findElement(fragment string) (*etree.Element, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, ErrMissing
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(fragment); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	el := doc.FindElement("//" + Tag)
	if el == nil {
		return nil, ErrMissing
	}
	return el, nil
}
