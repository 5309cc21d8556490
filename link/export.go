package link

import (
	"context"
	"fmt"
	"io"

	"github.com/ipld/go-car/v2"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/ipld/go-ipld-prime/traversal/selector/builder"
)

// Export writes a CAR holding the snapshot root and the records stored under
// the given key texts. Without keys every record of the snapshot is written.
//
// A key missing from the snapshot fails with ErrRecordNotFound before
// anything is written.
func (s *Store) Export(ctx context.Context, root datamodel.Link, out io.Writer, keys ...string) error {
	lnk, ok := root.(cidlink.Link)
	if !ok {
		return fmt.Errorf("unsupported root link %s", root)
	}
	node, err := s.Load(ctx, root, basicnode.Prototype.Map)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	for _, key := range keys {
		if _, err := node.LookupByString(key); err != nil {
			return fmt.Errorf("%w: %q", ErrRecordNotFound, key)
		}
	}

	w, err := car.NewSelectiveWriter(ctx, &s.lsys, lnk.Cid, recordSelector(keys).Node())
	if err != nil {
		return err
	}
	_, err = w.WriteTo(out)
	return err
}

// recordSelector matches the records of a snapshot root map. Records hold no
// links, so one level of exploration reaches every block.
func recordSelector(keys []string) builder.SelectorSpec {
	ssb := builder.NewSelectorSpecBuilder(basicnode.Prototype.Any)
	if len(keys) == 0 {
		return ssb.ExploreAll(ssb.Matcher())
	}
	return ssb.ExploreFields(func(efsb builder.ExploreFieldsSpecBuilder) {
		for _, key := range keys {
			efsb.Insert(key, ssb.Matcher())
		}
	})
}
