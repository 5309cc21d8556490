package codec

import (
	"bufio"
	"io"

	"github.com/beevik/etree"
)

// Documenter is implemented by values that have an XML document form,
// such as core.Store.
type Documenter interface {
	Document() (*etree.Document, error)
}

// Encoder writes encoded stores to an io.Writer.
type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{bufio.NewWriter(w)}
}

func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Encode writes the document of the given value.
func (e *Encoder) Encode(value Documenter) error {
	doc, err := value.Document()
	if err != nil {
		return err
	}
	_, err = doc.WriteTo(e.w)
	if err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}
