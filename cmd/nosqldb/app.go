package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/nasdf/nosqldb/codec"
	"github.com/nasdf/nosqldb/config"
	"github.com/nasdf/nosqldb/core"
	"github.com/nasdf/nosqldb/link"
	"github.com/nasdf/nosqldb/payload"
	"github.com/nasdf/nosqldb/persist"
	"github.com/nasdf/nosqldb/query"
	"github.com/nasdf/nosqldb/storage"
)

var ErrUsage = errors.New("invalid usage")

var commands = []string{"show", "export", "query", "car", "persist"}

// endOfTime bounds open ended timestamp ranges.
var endOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	if !slices.Contains(commands, command) {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
	if len(args) < 1 {
		return fmt.Errorf("%w: %s needs an xml file", ErrUsage, command)
	}
	switch a.cfg.Store.KeyType {
	case config.KeyInt:
		return withPayload(ctx, a, codec.IntKeys, command, args)
	case config.KeyString:
		return withPayload(ctx, a, codec.StringKeys, command, args)
	case config.KeyUUID:
		return withPayload(ctx, a, codec.UUIDKeys, command, args)
	}
	return fmt.Errorf("%w: unknown key type %q", config.ErrInvalid, a.cfg.Store.KeyType)
}

func withPayload[K comparable](ctx context.Context, a *app, keys codec.KeyCodec[K], command string, args []string) error {
	switch a.cfg.Store.PayloadType {
	case config.PayloadString:
		return newSession(a, keys, payload.DecodeString).run(ctx, command, args)
	case config.PayloadList:
		return newSession(a, keys, payload.DecodeList).run(ctx, command, args)
	case config.PayloadNode:
		return newSession(a, keys, payload.DecodeNode).run(ctx, command, args)
	}
	return fmt.Errorf("%w: unknown payload type %q", config.ErrInvalid, a.cfg.Store.PayloadType)
}

// session runs a command against a database loaded from an xml file.
type session[K comparable, P core.Payload[P]] struct {
	*app
	decoder *codec.Decoder[K, P]
	store   *core.Store[K, *core.Record[K, P]]
}

func newSession[K comparable, P core.Payload[P]](a *app, keys codec.KeyCodec[K], decode core.PayloadDecoder[P]) *session[K, P] {
	return &session[K, P]{
		app:     a,
		decoder: codec.NewDecoder(keys, decode, codec.WithLogger(a.logger)),
		store:   core.NewRecordStore[K, P](),
	}
}

func (s *session[K, P]) run(ctx context.Context, command string, args []string) error {
	if err := s.load(args[0]); err != nil {
		return err
	}
	switch command {
	case "show":
		return s.show()
	case "export":
		return s.export(args[1:])
	case "query":
		return s.query(args[1:])
	case "car":
		return s.car(ctx, args[1:])
	case "persist":
		return s.persist(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
}

func (s *session[K, P]) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := s.decoder.DecodeReader(f, s.store)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	s.logger.Info("loaded database", "file", path, "inserted", len(report.Inserted), "skipped", len(report.Skipped))
	return nil
}

func (s *session[K, P]) sortedKeys(keys []K) []K {
	slices.SortFunc(keys, core.CompareKeys[K])
	return keys
}

func (s *session[K, P]) print(keys []K, lookup func(K) (*core.Record[K, P], bool)) error {
	for _, key := range s.sortedKeys(keys) {
		rec, ok := lookup(key)
		if !ok {
			continue
		}
		id, err := link.Fingerprint(rec)
		if err != nil {
			return fmt.Errorf("key %v: %w", key, err)
		}
		fmt.Fprintf(s.out, "key: %v (%s)\n%s\n\n", key, id, rec)
	}
	return nil
}

func (s *session[K, P]) show() error {
	fmt.Fprintf(s.out, "%d records\n\n", s.store.Len())
	return s.print(s.store.Keys(), s.store.Lookup)
}

func (s *session[K, P]) export(args []string) error {
	var w io.Writer = s.out
	if len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := codec.NewEncoder(w)
	if err := enc.Encode(s.store); err != nil {
		return err
	}
	return enc.Flush()
}

func (s *session[K, P]) query(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: query needs at least one predicate", ErrUsage)
	}
	engine := query.NewEngine(s.store)
	for _, arg := range args {
		p, err := s.predicate(arg)
		if err != nil {
			return err
		}
		engine.Add(p)
	}
	view := engine.RunAll()
	view.Freeze()

	fmt.Fprintf(s.out, "%d of %d records match\n\n", view.Len(), s.store.Len())
	return s.print(view.Keys(), view.Lookup)
}

func (s *session[K, P]) predicate(arg string) (query.Predicate[K], error) {
	name, text, _ := strings.Cut(arg, "=")
	switch name {
	case "children":
		return query.HasChildren(s.store.Lookup), nil
	case "no-children":
		return query.NoChildren(s.store.Lookup), nil
	case "name":
		return query.NameContains(s.store.Lookup, text), nil
	case "meta":
		return query.MetadataContains(s.store.Lookup, text), nil
	case "key":
		return query.KeyContains[K](text), nil
	case "since", "until":
		ts, err := time.Parse(core.TimeLayout, text)
		if err != nil {
			return nil, fmt.Errorf("%w: predicate %s: %w", ErrUsage, name, err)
		}
		if name == "since" {
			return query.TimestampBetween(s.store.Lookup, ts, endOfTime), nil
		}
		return query.TimestampBetween(s.store.Lookup, time.Time{}, ts), nil
	}
	return nil, fmt.Errorf("%w: unknown predicate %q", ErrUsage, arg)
}

func (s *session[K, P]) car(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: car needs an output file", ErrUsage)
	}
	links := link.NewStore(storage.NewMemory())
	root, err := link.Snapshot(ctx, links, s.store.Keys(), s.store.Lookup)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := links.Export(ctx, root, f, args[1:]...); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "root: %s\n", root)
	return nil
}

func (s *session[K, P]) persist(ctx context.Context) error {
	store := storage.NewMemory()
	if s.cfg.Persist.Path != "" {
		fileStore, err := storage.NewFile(s.cfg.Persist.Path)
		if err != nil {
			return err
		}
		store = fileStore
	}

	scheduler := persist.NewScheduler(s.store, store,
		persist.WithKey(s.cfg.Persist.Key),
		persist.WithInterval(s.cfg.Persist.Interval),
		persist.WithMaxRuns(s.cfg.Persist.MaxRuns),
		persist.WithLogger(s.logger))

	err := scheduler.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintf(s.out, "runs: %d\nlast key: %s\n", scheduler.Runs(), scheduler.LastKey())
	return nil
}
