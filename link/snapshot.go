package link

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nasdf/nosqldb/core"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// Record node field names match the encoded record element names.
const (
	fieldName      = core.TagName
	fieldDescr     = core.TagDescription
	fieldTimestamp = core.TagTimestamp
	fieldChildren  = "children"
	fieldPayload   = "payload"
)

// ErrRecordNotFound is returned when a snapshot has no record for a key.
var ErrRecordNotFound = errors.New("record not found in snapshot")

// RecordNode returns the IPLD form of a record.
//
// Keys are stored in their text form and the payload as its encoded XML
// fragment, so two records with the same encoding have the same node.
func RecordNode[K comparable, P core.Payload[P]](rec *core.Record[K, P]) (datamodel.Node, error) {
	if rec == nil {
		return nil, core.ErrInconsistent
	}
	fragment, err := rec.Payload.EncodeXML()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return qp.BuildMap(basicnode.Prototype.Map, 5, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, fieldName, qp.String(rec.Name))
		qp.MapEntry(ma, fieldDescr, qp.String(rec.Description))
		qp.MapEntry(ma, fieldTimestamp, qp.String(rec.Timestamp.Format(core.TimeLayout)))
		qp.MapEntry(ma, fieldChildren, qp.List(int64(len(rec.Children)), func(la datamodel.ListAssembler) {
			for _, child := range rec.Children {
				qp.ListEntry(la, qp.String(core.FormatKey(child)))
			}
		}))
		qp.MapEntry(ma, fieldPayload, qp.String(fragment))
	})
}

// Fingerprint returns the content identifier of a record without storing it.
func Fingerprint[K comparable, P core.Payload[P]](rec *core.Record[K, P]) (cid.Cid, error) {
	node, err := RecordNode(rec)
	if err != nil {
		return cid.Undef, err
	}
	lsys := cidlink.DefaultLinkSystem()
	lnk, err := lsys.ComputeLink(linkPrototype, node)
	if err != nil {
		return cid.Undef, err
	}
	return lnk.(cidlink.Link).Cid, nil
}

// Snapshot stores every record resolved by lookup for the given keys and
// returns the link to a root map from key text to record link.
//
// Keys without a record are left out of the snapshot.
func Snapshot[K comparable, P core.Payload[P]](ctx context.Context, s *Store, keys []K, lookup func(K) (*core.Record[K, P], bool)) (datamodel.Link, error) {
	links := make(map[string]datamodel.Link, len(keys))
	for _, key := range keys {
		rec, ok := lookup(key)
		if !ok {
			continue
		}
		node, err := RecordNode(rec)
		if err != nil {
			return nil, fmt.Errorf("key %v: %w", key, err)
		}
		lnk, err := s.Store(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("store key %v: %w", key, err)
		}
		links[core.FormatKey(key)] = lnk
	}

	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)

	root, err := qp.BuildMap(basicnode.Prototype.Map, int64(len(names)), func(ma datamodel.MapAssembler) {
		for _, name := range names {
			qp.MapEntry(ma, name, qp.Link(links[name]))
		}
	})
	if err != nil {
		return nil, err
	}
	return s.Store(ctx, root)
}

// LoadRecord returns the record node stored under the given key text in the
// snapshot with the given root.
func (s *Store) LoadRecord(ctx context.Context, root datamodel.Link, key string) (datamodel.Node, error) {
	node, err := s.Load(ctx, root, basicnode.Prototype.Map)
	if err != nil {
		return nil, err
	}
	if _, err := node.LookupByString(key); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRecordNotFound, key)
	}
	path := datamodel.NewPath([]datamodel.PathSegment{datamodel.PathSegmentOfString(key)})
	return s.GetNode(ctx, path, node)
}

// SnapshotKeys returns the key texts of the snapshot with the given root.
func (s *Store) SnapshotKeys(ctx context.Context, root datamodel.Link) ([]string, error) {
	node, err := s.Load(ctx, root, basicnode.Prototype.Map)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, node.Length())
	iter := node.MapIterator()
	for !iter.Done() {
		k, _, err := iter.Next()
		if err != nil {
			return nil, err
		}
		text, err := k.AsString()
		if err != nil {
			return nil, err
		}
		keys = append(keys, text)
	}
	return keys, nil
}
