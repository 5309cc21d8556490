package codec

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nasdf/nosqldb/core"

	"github.com/beevik/etree"
)

// Option configures a Decoder.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report skipped keys.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Report lists the keys handled by a decode call.
type Report[K comparable] struct {
	// Inserted contains the keys added to the target store in document order.
	Inserted []K
	// Skipped contains the keys that were already present in the target store.
	Skipped []K
}

// Decoder rebuilds records from the XML form produced by core.Store.Encode.
type Decoder[K comparable, P core.Payload[P]] struct {
	keys    KeyCodec[K]
	payload core.PayloadDecoder[P]
	logger  *slog.Logger
}

// NewDecoder returns a decoder using the given key codec and payload decoder.
func NewDecoder[K comparable, P core.Payload[P]](keys KeyCodec[K], payload core.PayloadDecoder[P], opts ...Option) *Decoder[K, P] {
	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Decoder[K, P]{
		keys:    keys,
		payload: payload,
		logger:  o.logger,
	}
}

// DecodeString parses the given text and decodes it into the target store.
func (d *Decoder[K, P]) DecodeString(text string, target *core.Store[K, *core.Record[K, P]]) (Report[K], error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return Report[K]{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return d.Decode(doc, target)
}

// DecodeReader parses the XML read from r and decodes it into the target store.
func (d *Decoder[K, P]) DecodeReader(r io.Reader, target *core.Store[K, *core.Record[K, P]]) (Report[K], error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return Report[K]{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return d.Decode(doc, target)
}

// Decode inserts every record of the parsed document into the target store.
//
// Keys already present in the target are skipped and reported. Decoding stops
// at the first malformed entry; entries inserted before it stay in the store.
// The key and payload type names in the document are descriptive and are not
// checked.
func (d *Decoder[K, P]) Decode(doc *etree.Document, target *core.Store[K, *core.Record[K, P]]) (Report[K], error) {
	var report Report[K]

	root := doc.Root()
	if root == nil || root.Tag != core.TagRoot {
		return report, fmt.Errorf("%w: expected <%s> root element", ErrMalformed, core.TagRoot)
	}
	nodes := root.ChildElements()
	for i, node := range nodes {
		if node.Tag != core.TagKey {
			continue
		}
		key, err := d.parseKey(node.Text())
		if err != nil {
			return report, err
		}
		if i+1 >= len(nodes) || nodes[i+1].Tag != core.TagElement {
			return report, fmt.Errorf("%w: %q", ErrMissingElement, node.Text())
		}
		if target.ContainsKey(key) {
			d.logger.Info("store already contains key, skipping insert", "key", node.Text())
			report.Skipped = append(report.Skipped, key)
			continue
		}
		rec, err := d.decodeRecord(nodes[i+1])
		if err != nil {
			return report, fmt.Errorf("key %q: %w", node.Text(), err)
		}
		if !target.Insert(key, rec) {
			report.Skipped = append(report.Skipped, key)
			continue
		}
		report.Inserted = append(report.Inserted, key)
	}
	return report, nil
}

func (d *Decoder[K, P]) parseKey(text string) (K, error) {
	key, err := d.keys.Parse(text)
	if err != nil {
		return key, fmt.Errorf("%w: %q is not a valid %s: %w", ErrKeyParse, text, d.keys.Name, err)
	}
	return key, nil
}

func (d *Decoder[K, P]) decodeRecord(el *etree.Element) (*core.Record[K, P], error) {
	rec := core.NewRecord[K, P]()

	var fragment []*etree.Element
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case core.TagName:
			rec.Name = child.Text()

		case core.TagDescription:
			rec.Description = child.Text()

		case core.TagTimestamp:
			ts, err := time.Parse(core.TimeLayout, strings.TrimSpace(child.Text()))
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrTimestamp, err)
			}
			rec.Timestamp = ts

		case core.TagKeys:
			for _, k := range child.SelectElements(core.TagKey) {
				key, err := d.parseKey(k.Text())
				if err != nil {
					return nil, fmt.Errorf("child %w", err)
				}
				rec.Children = append(rec.Children, key)
			}

		default:
			fragment = append(fragment, child)
		}
	}

	text, err := writeFragment(fragment)
	if err != nil {
		return nil, err
	}
	payload, err := d.payload(text)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	rec.Payload = payload
	return rec, nil
}

// writeFragment returns the XML text of the given elements without detaching
// them from their parent.
func writeFragment(elements []*etree.Element) (string, error) {
	doc := etree.NewDocument()
	for _, el := range elements {
		doc.AddChild(el.Copy())
	}
	return doc.WriteToString()
}
