package payload

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/datamodel"
)

const (
	encodingAttr = "encoding"
	encodingJSON = "dag-json"
)

// Node is a payload holding structured IPLD data.
//
// The node is embedded in the payload element as dag-json text. IPLD nodes
// are immutable, so the payload is changed by replacing its node with Set.
type Node struct {
	node datamodel.Node
}

// NewNode returns a Node payload holding the given node.
func NewNode(n datamodel.Node) *Node {
	return &Node{node: n}
}

// Node returns the wrapped node.
func (n *Node) Node() datamodel.Node {
	if n == nil {
		return nil
	}
	return n.node
}

// Set replaces the wrapped node.
func (n *Node) Set(node datamodel.Node) {
	n.node = node
}

// Clone returns a payload holding a structurally independent copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	if n.node == nil {
		return &Node{}
	}
	data, err := ipld.Encode(n.node, dagcbor.Encode)
	if err != nil {
		// nodes that cannot round trip are still immutable, so sharing is safe
		return &Node{node: n.node}
	}
	node, err := ipld.Decode(data, dagcbor.Decode)
	if err != nil {
		return &Node{node: n.node}
	}
	return &Node{node: node}
}

// String returns the dag-json text of the node.
func (n *Node) String() string {
	if n.Node() == nil {
		return ""
	}
	data, err := ipld.Encode(n.node, dagjson.Encode)
	if err != nil {
		return fmt.Sprintf("<invalid node: %v>", err)
	}
	return string(data)
}

// EncodeXML returns the dag-json text of the node wrapped in a payload element.
func (n *Node) EncodeXML() (string, error) {
	el := etree.NewElement(Tag)
	el.CreateAttr(encodingAttr, encodingJSON)
	if n.Node() != nil {
		data, err := ipld.Encode(n.node, dagjson.Encode)
		if err != nil {
			return "", err
		}
		el.SetText(string(data))
	}
	return writeElement(el)
}

// DecodeNode returns the Node payload encoded in the given fragment.
func DecodeNode(fragment string) (*Node, error) {
	el, err := findElement(fragment)
	if err != nil {
		return nil, err
	}
	if enc := el.SelectAttrValue(encodingAttr, encodingJSON); enc != encodingJSON {
		return nil, fmt.Errorf("unsupported payload encoding %q", enc)
	}
	text := el.Text()
	if text == "" {
		return &Node{}, nil
	}
	node, err := ipld.Decode([]byte(text), dagjson.Decode)
	if err != nil {
		return nil, fmt.Errorf("decode dag-json payload: %w", err)
	}
	return &Node{node: node}, nil
}
